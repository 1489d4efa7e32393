package services

import (
	"context"
	"errors"
	"testing"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
)

type stubResolver struct {
	products map[string]domain.Product
	err      error
	requests [][]string
}

func (s *stubResolver) ResolveByID(_ context.Context, id string) (domain.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return domain.Product{}, ErrProductNotFound
}

func (s *stubResolver) ResolveMany(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.requests = append(s.requests, ids)
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]domain.Product{}
	for _, id := range distinctIDs(ids) {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func priced(id string, price int64) domain.Product {
	return domain.Product{ID: id, Title: id, SalePrice: &price}
}

func TestCartLineServiceResolvesLinesAndSubtotal(t *testing.T) {
	resolver := &stubResolver{products: map[string]domain.Product{
		"shirt": priced("shirt", 899),
		"toy":   priced("toy", 250),
	}}
	logger := &recordingLogger{}
	svc, err := NewCartLineService(CartLineServiceDeps{Resolver: resolver, Logger: logger.log})
	if err != nil {
		t.Fatalf("NewCartLineService: %v", err)
	}

	summary, err := svc.ResolveLines(context.Background(), []domain.CartItem{
		{ProductID: "shirt", Quantity: 2, Size: "M"},
		{ProductID: "missing-id", Quantity: 1},
		{ProductID: "toy", Quantity: 1},
		{ProductID: "shirt", Quantity: 1, Size: "L"},
	})
	if err != nil {
		t.Fatalf("ResolveLines: %v", err)
	}
	if len(summary.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(summary.Lines))
	}
	if summary.Subtotal != 899*2+250+899 {
		t.Fatalf("unexpected subtotal %d", summary.Subtotal)
	}
	if summary.Missing != 1 {
		t.Fatalf("expected one missing line, got %d", summary.Missing)
	}

	missing := summary.Lines[1]
	if missing.Found || missing.Product.ID != "" || missing.Product.Title != ProductNotFoundTitle || missing.LineTotal != 0 {
		t.Fatalf("unexpected placeholder line %+v", missing)
	}
	if summary.Lines[0].LineTotal != 1798 || summary.Lines[0].Item.Size != "M" {
		t.Fatalf("unexpected first line %+v", summary.Lines[0])
	}
	if len(resolver.requests) != 1 {
		t.Fatalf("expected a single batched resolution, got %d", len(resolver.requests))
	}
	if !logger.has(cartEventMissingProduct) {
		t.Fatalf("expected missing product event")
	}
}

func TestCartLineServiceRendersNonPositiveQuantityLines(t *testing.T) {
	resolver := &stubResolver{products: map[string]domain.Product{
		"shirt": priced("shirt", 899),
		"toy":   priced("toy", 250),
	}}
	logger := &recordingLogger{}
	svc, err := NewCartLineService(CartLineServiceDeps{Resolver: resolver, Logger: logger.log})
	if err != nil {
		t.Fatalf("NewCartLineService: %v", err)
	}

	summary, err := svc.ResolveLines(context.Background(), []domain.CartItem{
		{ProductID: "shirt", Quantity: 0},
		{ProductID: "toy", Quantity: -2},
		{ProductID: "shirt", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("ResolveLines: %v", err)
	}
	if len(summary.Lines) != 3 {
		t.Fatalf("expected every line rendered, got %d", len(summary.Lines))
	}
	for _, line := range summary.Lines[:2] {
		if !line.Found || line.LineTotal != 0 {
			t.Fatalf("expected found line with zero total, got %+v", line)
		}
	}
	if summary.Subtotal != 899*3 {
		t.Fatalf("unexpected subtotal %d", summary.Subtotal)
	}
	if !logger.has(cartEventInvalidQuantity) {
		t.Fatalf("expected invalid quantity event")
	}
}

func TestCartLineServicePropagatesOutage(t *testing.T) {
	svc, err := NewCartLineService(CartLineServiceDeps{Resolver: &stubResolver{err: ErrCatalogUnavailable}})
	if err != nil {
		t.Fatalf("NewCartLineService: %v", err)
	}
	_, err = svc.ResolveLines(context.Background(), []domain.CartItem{{ProductID: "a", Quantity: 1}})
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestCartLineServiceWithResolverAcrossCatalogs(t *testing.T) {
	reg := catalog.DefaultRegistry()
	shoe := productAt("shoe", "Men Casual Shoes", 0)
	shoe.ListPrice = 999
	shoe.DiscountPercent = 10
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainFootwear: {shoe},
	})
	resolver, _, _ := newTestResolver(t, repos, false)
	svc, err := NewCartLineService(CartLineServiceDeps{Resolver: resolver})
	if err != nil {
		t.Fatalf("NewCartLineService: %v", err)
	}

	summary, err := svc.ResolveLines(context.Background(), []domain.CartItem{
		{ProductID: "shoe", Quantity: 3},
		{ProductID: "missing-id", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("ResolveLines: %v", err)
	}
	if summary.Subtotal != 899*3 {
		t.Fatalf("expected subtotal 2697, got %d", summary.Subtotal)
	}
	if summary.Lines[1].Found {
		t.Fatalf("expected placeholder for missing id")
	}
}
