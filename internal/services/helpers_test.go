package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
	"github.com/brightcart/api/internal/repositories/memory"
)

var testEpoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func seededCatalogs(t *testing.T, reg *catalog.Registry, seed map[domain.CatalogDomain][]domain.Product) *memory.Registry {
	t.Helper()
	repos, err := memory.NewRegistry(reg)
	if err != nil {
		t.Fatalf("memory.NewRegistry: %v", err)
	}
	for d, products := range seed {
		store := repos.Store(d)
		if store == nil {
			t.Fatalf("no store for %s", d)
		}
		for _, p := range products {
			if err := store.Insert(context.Background(), p); err != nil {
				t.Fatalf("seed %s/%s: %v", d, p.ID, err)
			}
		}
	}
	return repos
}

func productAt(id, category string, minutes int) domain.Product {
	return domain.Product{
		ID:        id,
		Title:     id,
		ListPrice: 100,
		Category:  category,
		Images:    domain.ProductImages{Image1: "https://img.example.com/" + id + ".jpg"},
		CreatedAt: testEpoch.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

type countingRegistry struct {
	repositories.Registry

	mu    sync.Mutex
	calls map[domain.CatalogDomain]int
}

func newCountingRegistry(inner repositories.Registry) *countingRegistry {
	return &countingRegistry{Registry: inner, calls: map[domain.CatalogDomain]int{}}
}

func (c *countingRegistry) Catalog(d domain.CatalogDomain) repositories.CatalogRepository {
	inner := c.Registry.Catalog(d)
	if inner == nil {
		return nil
	}
	return &countingCatalog{CatalogRepository: inner, domain: d, parent: c}
}

func (c *countingRegistry) lookups(d domain.CatalogDomain) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[d]
}

type countingCatalog struct {
	repositories.CatalogRepository
	domain domain.CatalogDomain
	parent *countingRegistry
}

func (c *countingCatalog) FindByID(ctx context.Context, id string) (domain.Product, error) {
	c.parent.mu.Lock()
	c.parent.calls[c.domain]++
	c.parent.mu.Unlock()
	return c.CatalogRepository.FindByID(ctx, id)
}

type recordingMetrics struct {
	mu       sync.Mutex
	failures map[domain.CatalogDomain]int
	notFound int
}

func (m *recordingMetrics) ProbeFailed(_ context.Context, d domain.CatalogDomain, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = map[domain.CatalogDomain]int{}
	}
	m.failures[d]++
}

func (m *recordingMetrics) ProductNotFound(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notFound++
}

type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingLogger) log(_ context.Context, event string, _ map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingLogger) has(event string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == event {
			return true
		}
	}
	return false
}
