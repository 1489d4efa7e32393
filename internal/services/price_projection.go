package services

import (
	"math"

	domain "github.com/brightcart/api/internal/domain"
)

// SalePrice derives the integer display price. Discounts are not clamped on read; the
// admin write path clamps them to [0, 100] before storage.
func SalePrice(listPrice, discountPercent float64) int64 {
	if math.IsNaN(listPrice) || math.IsNaN(discountPercent) {
		return 0
	}
	return int64(math.Round(listPrice - listPrice*discountPercent/100))
}

// ProductPresenter turns stored records into display-ready products.
type ProductPresenter struct {
	images *ImageURLNormalizer
}

// NewProductPresenter wires the image normalizer used for every presented record.
func NewProductPresenter(images *ImageURLNormalizer) *ProductPresenter {
	if images == nil {
		images = NewImageURLNormalizer("", nil)
	}
	return &ProductPresenter{images: images}
}

// Present returns a copy of p with normalized images and a sale price.
func (pp *ProductPresenter) Present(p domain.Product) domain.Product {
	if pp != nil && pp.images != nil {
		p.Images = pp.images.Normalize(p.Images)
	}
	price := SalePrice(p.ListPrice, p.DiscountPercent)
	p.SalePrice = &price
	return p
}

// PresentAll presents every product in order.
func (pp *ProductPresenter) PresentAll(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		out[i] = pp.Present(p)
	}
	return out
}
