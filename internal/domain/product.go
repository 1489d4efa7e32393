package domain

import (
	"strings"
	"time"
)

// CatalogDomain tags a catalog partition with the product family it holds.
type CatalogDomain string

const (
	DomainGeneric     CatalogDomain = "generic"
	DomainClothing    CatalogDomain = "clothing"
	DomainFootwear    CatalogDomain = "footwear"
	DomainAccessories CatalogDomain = "accessories"
	DomainBabyCare    CatalogDomain = "babycare"
	DomainToys        CatalogDomain = "toys"
)

// String returns the wire form of the domain tag.
func (d CatalogDomain) String() string { return string(d) }

// ProductImages holds up to three display images. Gallery carries the legacy
// list-of-urls shape until it is folded into the numbered slots.
type ProductImages struct {
	Image1  string
	Image2  string
	Image3  string
	Gallery []string
}

// Slots returns the three numbered image slots in order.
func (i ProductImages) Slots() [3]string {
	return [3]string{i.Image1, i.Image2, i.Image3}
}

// Primary returns the mandatory first image, considering the legacy gallery when the slot is empty.
func (i ProductImages) Primary() string {
	if v := strings.TrimSpace(i.Image1); v != "" {
		return v
	}
	for _, candidate := range i.Gallery {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}

// Product is the record shape shared by every catalog. IDs are unique only within Catalog.
type Product struct {
	ID              string
	Catalog         CatalogDomain
	Title           string
	ListPrice       float64
	DiscountPercent float64
	SalePrice       *int64
	Description     string
	Category        string
	CategoryRef     string
	Subcategory     string
	Attributes      map[string]any
	Images          ProductImages
	CreatedAt       time.Time
}

// DisplayReady reports whether the derived sale price has been attached.
func (p Product) DisplayReady() bool {
	return p.SalePrice != nil
}

// Attribute returns the domain attribute stored under key.
func (p Product) Attribute(key string) (any, bool) {
	if len(p.Attributes) == 0 {
		return nil, false
	}
	value, ok := p.Attributes[key]
	return value, ok
}

// CartItem is a stored cart or order line referencing a product by id only.
type CartItem struct {
	ProductID string
	Quantity  int
	Size      string
}

// CartLine is a cart item rendered with its resolved product.
type CartLine struct {
	Item      CartItem
	Product   Product
	Found     bool
	LineTotal int64
}

// CartSummary aggregates resolved lines.
type CartSummary struct {
	Lines    []CartLine
	Subtotal int64
	Missing  int
}
