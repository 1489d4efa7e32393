package services

import (
	"context"
	"errors"
	"testing"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
)

func newTestResolver(t *testing.T, repos repositories.Registry, parallel bool) (IdentityResolver, *recordingMetrics, *recordingLogger) {
	t.Helper()
	metrics := &recordingMetrics{}
	logger := &recordingLogger{}
	resolver, err := NewIdentityResolver(IdentityResolverDeps{
		Registry:       catalog.DefaultRegistry(),
		Catalogs:       repos,
		Metrics:        metrics,
		Logger:         logger.log,
		ParallelProbes: parallel,
	})
	if err != nil {
		t.Fatalf("NewIdentityResolver: %v", err)
	}
	return resolver, metrics, logger
}

func TestNewIdentityResolverRequiresDependencies(t *testing.T) {
	if _, err := NewIdentityResolver(IdentityResolverDeps{}); err == nil {
		t.Fatalf("expected error without registry")
	}
	if _, err := NewIdentityResolver(IdentityResolverDeps{Registry: catalog.DefaultRegistry()}); err == nil {
		t.Fatalf("expected error without repositories")
	}
}

func TestIdentityResolverFindsRecordInLaterCatalog(t *testing.T) {
	reg := catalog.DefaultRegistry()
	p := productAt("shoe-1", "Men Casual Shoes", 0)
	p.ListPrice = 999
	p.DiscountPercent = 10
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainFootwear: {p},
	})

	for _, parallel := range []bool{false, true} {
		resolver, _, _ := newTestResolver(t, repos, parallel)
		got, err := resolver.ResolveByID(context.Background(), "shoe-1")
		if err != nil {
			t.Fatalf("parallel=%v: ResolveByID: %v", parallel, err)
		}
		if got.Catalog != domain.DomainFootwear {
			t.Fatalf("parallel=%v: expected footwear record, got %s", parallel, got.Catalog)
		}
		if got.SalePrice == nil || *got.SalePrice != 899 {
			t.Fatalf("parallel=%v: expected sale price 899, got %v", parallel, got.SalePrice)
		}
	}
}

func TestIdentityResolverPrefersHigherPriorityCatalog(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainClothing: {productAt("dup", "Girls Cloth", 0)},
		domain.DomainToys:     {productAt("dup", "Soft Toys", 0)},
		domain.DomainGeneric:  {productAt("dup", "Misc", 0)},
	})

	for _, parallel := range []bool{false, true} {
		counted := newCountingRegistry(repos)
		resolver, _, _ := newTestResolver(t, counted, parallel)
		got, err := resolver.ResolveByID(context.Background(), "dup")
		if err != nil {
			t.Fatalf("parallel=%v: ResolveByID: %v", parallel, err)
		}
		if got.Catalog != domain.DomainClothing {
			t.Fatalf("parallel=%v: expected clothing to win, got %s", parallel, got.Catalog)
		}
		if !parallel && counted.lookups(domain.DomainToys) != 0 {
			t.Fatalf("sequential probing must stop at the first hit")
		}
	}
}

func TestIdentityResolverNotFound(t *testing.T) {
	repos := seededCatalogs(t, catalog.DefaultRegistry(), nil)
	resolver, metrics, logger := newTestResolver(t, repos, false)

	_, err := resolver.ResolveByID(context.Background(), "missing-id")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if metrics.notFound != 1 {
		t.Fatalf("expected not-found metric, got %d", metrics.notFound)
	}
	if !logger.has(resolverEventNotFound) {
		t.Fatalf("expected not-found event, got %v", logger.events)
	}

	if _, err := resolver.ResolveByID(context.Background(), "  "); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected blank id to be not found, got %v", err)
	}
}

func TestIdentityResolverSwallowsIndividualFailures(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainGeneric: {productAt("legacy-1", "Watches", 0)},
	})
	repos.Store(domain.DomainClothing).FailWith(errors.New("connection reset"))
	repos.Store(domain.DomainToys).FailWith(errors.New("connection reset"))

	resolver, metrics, logger := newTestResolver(t, repos, false)
	got, err := resolver.ResolveByID(context.Background(), "legacy-1")
	if err != nil {
		t.Fatalf("ResolveByID: %v", err)
	}
	if got.Catalog != domain.DomainGeneric {
		t.Fatalf("expected generic record, got %s", got.Catalog)
	}
	if metrics.failures[domain.DomainClothing] != 1 || metrics.failures[domain.DomainToys] != 1 {
		t.Fatalf("expected probe failures recorded, got %v", metrics.failures)
	}
	if !logger.has(resolverEventProbeFailed) {
		t.Fatalf("expected probe failure event")
	}

	if _, err := resolver.ResolveByID(context.Background(), "absent"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("partial failure with no hit should be not found, got %v", err)
	}
}

func TestIdentityResolverAllCatalogsFailing(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, nil)
	for _, desc := range reg.ProbeOrder() {
		repos.Store(desc.Domain).FailWith(errors.New("outage"))
	}

	for _, parallel := range []bool{false, true} {
		resolver, _, _ := newTestResolver(t, repos, parallel)
		_, err := resolver.ResolveByID(context.Background(), "any")
		if !errors.Is(err, ErrCatalogUnavailable) {
			t.Fatalf("parallel=%v: expected ErrCatalogUnavailable, got %v", parallel, err)
		}
	}
}

func TestIdentityResolverMalformedIDIsNotFound(t *testing.T) {
	repos := seededCatalogs(t, catalog.DefaultRegistry(), nil)
	resolver, _, _ := newTestResolver(t, repos, false)
	if _, err := resolver.ResolveByID(context.Background(), "a/b"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected malformed id to resolve as not found, got %v", err)
	}
}

func TestIdentityResolverResolveManyDeduplicates(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainClothing: {productAt("c1", "Girls Cloth", 0)},
		domain.DomainToys:     {productAt("t1", "Soft Toys", 0)},
	})
	counted := newCountingRegistry(repos)
	resolver, _, _ := newTestResolver(t, counted, false)

	got, err := resolver.ResolveMany(context.Background(), []string{"c1", "t1", "c1", " c1 ", "missing", ""})
	if err != nil {
		t.Fatalf("ResolveMany: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two resolved products, got %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("missing id must be absent from the result")
	}
	if calls := counted.lookups(domain.DomainClothing); calls != 3 {
		t.Fatalf("expected one clothing lookup per distinct id (3), got %d", calls)
	}
}

func TestIdentityResolverResolveManyPropagatesOutage(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, nil)
	for _, desc := range reg.ProbeOrder() {
		repos.Store(desc.Domain).FailWith(errors.New("outage"))
	}
	resolver, _, _ := newTestResolver(t, repos, false)
	if _, err := resolver.ResolveMany(context.Background(), []string{"a", "b"}); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}
