package firestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	pfirestore "github.com/brightcart/api/internal/platform/firestore"
	"github.com/brightcart/api/internal/repositories"
)

// Registry wires one Firestore collection per registered catalog.
type Registry struct {
	provider *pfirestore.Provider
	catalogs map[domain.CatalogDomain]repositories.CatalogRepository
	health   repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry builds catalog repositories for every descriptor of reg.
func NewRegistry(provider *pfirestore.Provider, reg *catalog.Registry, opts ...repositories.CatalogHealthOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}
	if reg == nil {
		return nil, errors.New("firestore registry requires catalog registry")
	}
	out := &Registry{
		provider: provider,
		catalogs: make(map[domain.CatalogDomain]repositories.CatalogRepository),
	}
	for _, desc := range reg.ProbeOrder() {
		repo, err := NewCatalogRepository(provider, desc)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", desc.Domain, err)
		}
		out.catalogs[desc.Domain] = repo
	}
	health, err := repositories.NewCatalogHealthRepository(out.catalogs, opts...)
	if err != nil {
		return nil, err
	}
	out.health = health
	return out, nil
}

func (r *Registry) Catalog(d domain.CatalogDomain) repositories.CatalogRepository {
	return r.catalogs[d]
}

func (r *Registry) Health() repositories.HealthRepository { return r.health }

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}
