package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/brightcart/api/internal/domain"
)

// ProductNotFoundTitle is the display title of the placeholder rendered for unresolvable lines.
const ProductNotFoundTitle = "Product not found"

const (
	cartEventMissingProduct  = "cart.line.product_missing"
	cartEventInvalidQuantity = "cart.line.invalid_quantity"
)

// CartLineServiceDeps bundles collaborators required by the cart line service.
type CartLineServiceDeps struct {
	Resolver IdentityResolver
	Logger   LogFunc
}

type cartLineService struct {
	resolver IdentityResolver
	logger   LogFunc
}

var _ CartLineService = (*cartLineService)(nil)

// NewCartLineService constructs the service that renders stored lines with live product data.
func NewCartLineService(deps CartLineServiceDeps) (CartLineService, error) {
	if deps.Resolver == nil {
		return nil, errors.New("cart line service: identity resolver is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &cartLineService{resolver: deps.Resolver, logger: logger}, nil
}

// PlaceholderProduct is rendered in place of a product no catalog holds.
func PlaceholderProduct() domain.Product {
	zero := int64(0)
	return domain.Product{Title: ProductNotFoundTitle, SalePrice: &zero}
}

func (s *cartLineService) ResolveLines(ctx context.Context, items []domain.CartItem) (domain.CartSummary, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	// Each distinct id is resolved once per request even when several lines share it.
	resolved, err := s.resolver.ResolveMany(ctx, ids)
	if err != nil {
		return domain.CartSummary{}, err
	}

	summary := domain.CartSummary{Lines: make([]domain.CartLine, 0, len(items))}
	for _, item := range items {
		item.ProductID = strings.TrimSpace(item.ProductID)
		item.Size = strings.TrimSpace(item.Size)
		line := domain.CartLine{Item: item}

		product, ok := resolved[item.ProductID]
		if !ok {
			line.Product = PlaceholderProduct()
			summary.Missing++
			s.logger(ctx, cartEventMissingProduct, map[string]any{"productId": item.ProductID})
			summary.Lines = append(summary.Lines, line)
			continue
		}

		line.Product = product
		line.Found = true
		// A stored line with a non-positive quantity still renders, contributing nothing.
		if item.Quantity < 1 {
			s.logger(ctx, cartEventInvalidQuantity, map[string]any{"productId": item.ProductID, "quantity": item.Quantity})
		} else if product.SalePrice != nil {
			line.LineTotal = *product.SalePrice * int64(item.Quantity)
		}
		summary.Subtotal += line.LineTotal
		summary.Lines = append(summary.Lines, line)
	}
	return summary, nil
}
