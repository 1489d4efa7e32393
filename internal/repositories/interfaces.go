package repositories

import (
	"context"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
)

// Registry exposes the catalog repositories and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	// Catalog returns the repository backing d, or nil when d has no store.
	Catalog(d domain.CatalogDomain) CatalogRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository reads and writes the product records of a single catalog partition.
type CatalogRepository interface {
	// FindByID performs an indexed point lookup. A missing record yields a RepositoryError with IsNotFound.
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	// Find returns every record matching pred, newest first.
	Find(ctx context.Context, pred catalog.Predicate) ([]domain.Product, error)
	// Insert creates a record. An existing id yields a RepositoryError with IsConflict.
	Insert(ctx context.Context, product domain.Product) error
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// HealthRepository reports the reachability of every catalog store.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
