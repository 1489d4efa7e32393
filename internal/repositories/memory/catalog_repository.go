// Package memory provides process-local catalog stores for local development and tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
)

// CatalogRepository keeps one catalog partition in memory.
type CatalogRepository struct {
	domain domain.CatalogDomain

	mu       sync.RWMutex
	products map[string]domain.Product
	failWith error
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository returns an empty store for d seeded with products.
func NewCatalogRepository(d domain.CatalogDomain, products ...domain.Product) *CatalogRepository {
	repo := &CatalogRepository{
		domain:   d,
		products: make(map[string]domain.Product, len(products)),
	}
	for _, p := range products {
		p.Catalog = d
		repo.products[p.ID] = cloneProduct(p)
	}
	return repo
}

// FailWith makes every subsequent call return err wrapped as an unavailable store error.
// A nil err restores normal operation.
func (r *CatalogRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if err := r.check(ctx, "find"); err != nil {
		return domain.Product{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" || strings.Contains(productID, "/") {
		return domain.Product{}, repositories.NewCatalogError(r.op("find"), repositories.CatalogErrorInvalidID, errors.New("malformed product id"))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.Product{}, repositories.NewCatalogError(r.op("find"), repositories.CatalogErrorNotFound, nil)
	}
	return cloneProduct(p), nil
}

func (r *CatalogRepository) Find(ctx context.Context, pred catalog.Predicate) ([]domain.Product, error) {
	if err := r.check(ctx, "query"); err != nil {
		return nil, err
	}
	if pred == nil {
		pred = catalog.MatchAll()
	}
	r.mu.RLock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if pred.Match(p) {
			out = append(out, cloneProduct(p))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CatalogRepository) Insert(ctx context.Context, product domain.Product) error {
	if err := r.check(ctx, "insert"); err != nil {
		return err
	}
	id := strings.TrimSpace(product.ID)
	if id == "" || strings.Contains(id, "/") {
		return repositories.NewCatalogError(r.op("insert"), repositories.CatalogErrorInvalidID, errors.New("malformed product id"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[id]; exists {
		return repositories.NewCatalogError(r.op("insert"), repositories.CatalogErrorConflict, errors.New("product already exists"))
	}
	product.ID = id
	product.Catalog = r.domain
	product.SalePrice = nil
	r.products[id] = cloneProduct(product)
	return nil
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.check(ctx, "ping")
}

// Len reports the number of stored records.
func (r *CatalogRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}

func (r *CatalogRepository) check(ctx context.Context, action string) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	r.mu.RLock()
	failWith := r.failWith
	r.mu.RUnlock()
	if failWith != nil {
		return repositories.NewCatalogError(r.op(action), repositories.CatalogErrorUnavailable, failWith)
	}
	return nil
}

func (r *CatalogRepository) op(action string) string {
	return "memory." + r.domain.String() + "." + action
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Attributes != nil {
		attrs := make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[k] = v
		}
		p.Attributes = attrs
	}
	if p.Images.Gallery != nil {
		p.Images.Gallery = append([]string(nil), p.Images.Gallery...)
	}
	if p.SalePrice != nil {
		v := *p.SalePrice
		p.SalePrice = &v
	}
	return p
}
