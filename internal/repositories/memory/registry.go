package memory

import (
	"context"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
)

// Registry holds one in-memory store per registered catalog.
type Registry struct {
	catalogs map[domain.CatalogDomain]*CatalogRepository
	health   repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry creates an empty store for every catalog of reg.
func NewRegistry(reg *catalog.Registry, opts ...repositories.CatalogHealthOption) (*Registry, error) {
	out := &Registry{catalogs: make(map[domain.CatalogDomain]*CatalogRepository)}
	pingers := make(map[domain.CatalogDomain]repositories.CatalogRepository)
	for _, desc := range reg.ProbeOrder() {
		store := NewCatalogRepository(desc.Domain)
		out.catalogs[desc.Domain] = store
		pingers[desc.Domain] = store
	}
	health, err := repositories.NewCatalogHealthRepository(pingers, opts...)
	if err != nil {
		return nil, err
	}
	out.health = health
	return out, nil
}

// Catalog returns the store for d, or nil.
func (r *Registry) Catalog(d domain.CatalogDomain) repositories.CatalogRepository {
	if store, ok := r.catalogs[d]; ok {
		return store
	}
	return nil
}

// Store exposes the concrete store for seeding.
func (r *Registry) Store(d domain.CatalogDomain) *CatalogRepository {
	return r.catalogs[d]
}

func (r *Registry) Health() repositories.HealthRepository { return r.health }

func (r *Registry) Close(context.Context) error { return nil }
