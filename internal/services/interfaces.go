package services

import (
	"context"
	"time"

	domain "github.com/brightcart/api/internal/domain"
)

// IdentityResolver locates a product by id across every catalog.
type IdentityResolver interface {
	// ResolveByID returns the product from the highest-priority catalog holding id,
	// ErrProductNotFound when none does, or ErrCatalogUnavailable when every probe failed.
	ResolveByID(ctx context.Context, productID string) (domain.Product, error)
	// ResolveMany resolves each distinct id concurrently. Missing ids are absent from the result.
	ResolveMany(ctx context.Context, productIDs []string) (map[string]domain.Product, error)
}

// CatalogSearch runs federated browse queries.
type CatalogSearch interface {
	Search(ctx context.Context, query SearchQuery) ([]domain.Product, error)
}

// CartLineService renders stored cart or order lines with priced products.
type CartLineService interface {
	ResolveLines(ctx context.Context, items []domain.CartItem) (domain.CartSummary, error)
}

// ProductAdminService creates products in the catalog their category belongs to.
type ProductAdminService interface {
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
}

// SystemService exposes operational reports.
type SystemService interface {
	HealthReport(ctx context.Context) (domain.SystemHealthReport, error)
}

// ProductEventPublisher announces catalog writes to downstream consumers.
type ProductEventPublisher interface {
	PublishProductCreated(ctx context.Context, event ProductCreatedEvent) (string, error)
}

// CatalogMetrics records catalog probe outcomes.
type CatalogMetrics interface {
	ProbeFailed(ctx context.Context, catalog domain.CatalogDomain, operation string)
	ProductNotFound(ctx context.Context)
}

// SearchQuery carries raw browse parameters. Category and Subcategory are free text;
// Filters maps attribute keys to raw values.
type SearchQuery struct {
	Domain      domain.CatalogDomain
	Category    string
	Subcategory string
	Filters     map[string]string
	Limit       int
}

// CreateProductCommand is the admin write path input.
type CreateProductCommand struct {
	Title           string
	ListPrice       float64
	DiscountPercent float64
	Description     string
	Category        string
	CategoryRef     string
	Subcategory     string
	Attributes      map[string]any
	Images          []string
	ActorID         string
}

// ProductCreatedEvent is published after a product is written.
type ProductCreatedEvent struct {
	ProductID string               `json:"productId"`
	Catalog   domain.CatalogDomain `json:"catalog"`
	Title     string               `json:"title"`
	Category  string               `json:"category"`
	ActorID   string               `json:"actorId,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

type noopMetrics struct{}

func (noopMetrics) ProbeFailed(context.Context, domain.CatalogDomain, string) {}
func (noopMetrics) ProductNotFound(context.Context)                           {}
