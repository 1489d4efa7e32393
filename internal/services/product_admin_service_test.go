package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories/memory"
)

type stubProductEvents struct {
	events []ProductCreatedEvent
	err    error
}

func (s *stubProductEvents) PublishProductCreated(_ context.Context, event ProductCreatedEvent) (string, error) {
	s.events = append(s.events, event)
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

func newTestAdmin(t *testing.T, events ProductEventPublisher, ids ...string) (ProductAdminService, *memory.Registry, *recordingLogger) {
	t.Helper()
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, nil)
	logger := &recordingLogger{}
	next := 0
	svc, err := NewProductAdminService(ProductAdminServiceDeps{
		Registry: reg,
		Catalogs: repos,
		Events:   events,
		Clock:    func() time.Time { return testEpoch },
		IDGenerator: func() string {
			id := ids[next%len(ids)]
			next++
			return id
		},
		Logger: logger.log,
	})
	if err != nil {
		t.Fatalf("NewProductAdminService: %v", err)
	}
	return svc, repos, logger
}

func validCommand() CreateProductCommand {
	return CreateProductCommand{
		Title:           "  Trail Runner  ",
		ListPrice:       999,
		DiscountPercent: 10,
		Description:     `<p>Light<script>alert(1)</script></p>`,
		Category:        "Men Sports Shoes",
		Attributes:      map[string]any{"footwearType": " Running ", "": "x", "soleMaterial": ""},
		Images:          []string{"https://img.example.com/1.jpg", " ", "https://img.example.com/2.jpg"},
		ActorID:         "staff-1",
	}
}

func TestProductAdminServiceCreatesInClassifiedCatalog(t *testing.T) {
	events := &stubProductEvents{}
	svc, repos, _ := newTestAdmin(t, events, "01HX")

	got, err := svc.CreateProduct(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if got.ID != "01HX" || got.Catalog != domain.DomainFootwear || got.Title != "Trail Runner" {
		t.Fatalf("unexpected product %+v", got)
	}
	if got.SalePrice == nil || *got.SalePrice != 899 {
		t.Fatalf("expected sale price 899, got %v", got.SalePrice)
	}
	if strings.Contains(got.Description, "script") || !strings.Contains(got.Description, "Light") {
		t.Fatalf("expected sanitized description, got %q", got.Description)
	}
	if got.Images.Image1 != "https://img.example.com/1.jpg" || got.Images.Image2 != "https://img.example.com/2.jpg" || got.Images.Image3 != "" {
		t.Fatalf("unexpected images %+v", got.Images)
	}
	if len(got.Attributes) != 1 || got.Attributes["footwearType"] != "Running" {
		t.Fatalf("unexpected attributes %v", got.Attributes)
	}
	if !got.CreatedAt.Equal(testEpoch) {
		t.Fatalf("expected injected clock, got %v", got.CreatedAt)
	}

	stored, err := repos.Store(domain.DomainFootwear).FindByID(context.Background(), "01HX")
	if err != nil {
		t.Fatalf("expected product stored in footwear: %v", err)
	}
	if stored.SalePrice != nil {
		t.Fatalf("sale price must not be persisted")
	}

	if len(events.events) != 1 || events.events[0].ProductID != "01HX" || events.events[0].Catalog != domain.DomainFootwear || events.events[0].ActorID != "staff-1" {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestProductAdminServiceClampsDiscount(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{-5, 999},
		{0, 999},
		{100, 0},
		{150, 0},
	}
	for _, tc := range cases {
		svc, _, _ := newTestAdmin(t, nil, "id")
		cmd := validCommand()
		cmd.DiscountPercent = tc.in
		got, err := svc.CreateProduct(context.Background(), cmd)
		if err != nil {
			t.Fatalf("discount %v: %v", tc.in, err)
		}
		if *got.SalePrice != tc.want {
			t.Fatalf("discount %v: expected sale price %d, got %d", tc.in, tc.want, *got.SalePrice)
		}
		if got.DiscountPercent < 0 || got.DiscountPercent > 100 {
			t.Fatalf("discount %v stored out of range: %v", tc.in, got.DiscountPercent)
		}
	}
}

func TestProductAdminServiceValidation(t *testing.T) {
	cases := map[string]func(*CreateProductCommand){
		"missing title":    func(c *CreateProductCommand) { c.Title = " " },
		"missing category": func(c *CreateProductCommand) { c.Category = "" },
		"negative price":   func(c *CreateProductCommand) { c.ListPrice = -1 },
		"no images":        func(c *CreateProductCommand) { c.Images = []string{" "} },
		"too many images":  func(c *CreateProductCommand) { c.Images = []string{"a", "b", "c", "d"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, _ := newTestAdmin(t, nil, "id")
			cmd := validCommand()
			mutate(&cmd)
			if _, err := svc.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrCatalogInvalidInput) {
				t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
			}
		})
	}
}

func TestProductAdminServiceGenericFallbackAndConflict(t *testing.T) {
	svc, repos, logger := newTestAdmin(t, nil, "same")
	cmd := validCommand()
	cmd.Category = "Kitchen Gadgets"

	got, err := svc.CreateProduct(context.Background(), cmd)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if got.Catalog != domain.DomainGeneric || repos.Store(domain.DomainGeneric).Len() != 1 {
		t.Fatalf("expected generic destination, got %s", got.Catalog)
	}
	if !logger.has(adminEventGenericDestination) {
		t.Fatalf("expected generic destination to be logged")
	}

	if _, err := svc.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrProductConflict) {
		t.Fatalf("expected ErrProductConflict, got %v", err)
	}
}

func TestProductAdminServicePublishFailureIsNotFatal(t *testing.T) {
	events := &stubProductEvents{err: errors.New("topic missing")}
	svc, _, logger := newTestAdmin(t, events, "id")
	if _, err := svc.CreateProduct(context.Background(), validCommand()); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
	if !logger.has(adminEventPublishFailed) {
		t.Fatalf("expected publish failure to be logged")
	}
}
