package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
	"github.com/brightcart/api/internal/repositories/memory"
)

func newTestSearch(t *testing.T, repos repositories.Registry) (*federatedSearch, *recordingLogger) {
	t.Helper()
	logger := &recordingLogger{}
	svc, err := NewFederatedSearch(FederatedSearchDeps{
		Registry: catalog.DefaultRegistry(),
		Catalogs: repos,
		Logger:   logger.log,
	})
	if err != nil {
		t.Fatalf("NewFederatedSearch: %v", err)
	}
	return svc.(*federatedSearch), logger
}

func footwearFixture(t *testing.T) *memory.Registry {
	t.Helper()
	home := productAt("A", "Footwear", 10)
	home.Attributes = map[string]any{"footwearType": "Sandals"}
	return seededCatalogs(t, catalog.DefaultRegistry(), map[domain.CatalogDomain][]domain.Product{
		domain.DomainFootwear: {home},
		domain.DomainGeneric: {
			productAt("A", "Sandals", 20),
			productAt("B", "Shoe Rack Accessory", 30),
		},
	})
}

func TestFederatedSearchEmptyCategorySkipsLegacy(t *testing.T) {
	svc, _ := newTestSearch(t, footwearFixture(t))

	got, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"A"}) {
		t.Fatalf("expected [A], got %v", ids(got))
	}
	if got[0].Catalog != domain.DomainFootwear || got[0].Category != "Footwear" {
		t.Fatalf("expected the home record for A, got %+v", got[0])
	}
}

func TestFederatedSearchHomeWinsOnIDCollision(t *testing.T) {
	svc, _ := newTestSearch(t, footwearFixture(t))

	got, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear, Category: "Footwear"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"A"}) {
		t.Fatalf("expected [A], got %v", ids(got))
	}
	if got[0].Catalog != domain.DomainFootwear {
		t.Fatalf("expected home catalog to win, got %s", got[0].Catalog)
	}
}

func TestFederatedSearchExpandsParentCategory(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainFootwear: {
			productAt("casual", "Men Casual Shoes", 5),
			productAt("heels", "Women Heels", 6),
		},
		domain.DomainGeneric: {
			productAt("legacy-sports", "Men Sports Shoes", 7),
			productAt("legacy-watch", "Men Watches", 8),
		},
	})
	svc, _ := newTestSearch(t, repos)

	got, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear, Category: "Men's Shoes"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"legacy-sports", "casual"}) {
		t.Fatalf("expected children of Men's Shoes newest first, got %v", ids(got))
	}
}

func TestFederatedSearchResolvesAliases(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainAccessories: {productAt("w1", "Women Watches", 1)},
		domain.DomainGeneric:     {productAt("w2", "Women Watches", 2)},
	})
	svc, _ := newTestSearch(t, repos)

	got, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainAccessories, Category: "Ladies Watches"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"w2", "w1"}) {
		t.Fatalf("expected alias to reach both spellings, got %v", ids(got))
	}
}

func TestFederatedSearchAppliesSubcategoryAndAttributeFilters(t *testing.T) {
	reg := catalog.DefaultRegistry()
	battery := productAt("car", "Toys", 1)
	battery.Subcategory = "Remote Control"
	battery.Attributes = map[string]any{"batteryRequired": true}
	plain := productAt("blocks", "Toys", 2)
	plain.Subcategory = "Building Blocks"
	plain.Attributes = map[string]any{"batteryRequired": "false"}
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainToys: {battery, plain},
	})
	svc, _ := newTestSearch(t, repos)

	got, err := svc.Search(context.Background(), SearchQuery{
		Domain:  domain.DomainToys,
		Filters: map[string]string{"batteryRequired": "true", "unknownKey": "x"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"car"}) {
		t.Fatalf("expected battery filter to keep car only, got %v", ids(got))
	}

	got, err = svc.Search(context.Background(), SearchQuery{Domain: domain.DomainToys, Subcategory: "building-blocks"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"blocks"}) {
		t.Fatalf("expected subcategory filter to keep blocks only, got %v", ids(got))
	}
}

func TestFederatedSearchDegradesWhenOneSideFails(t *testing.T) {
	repos := footwearFixture(t)
	repos.Store(domain.DomainFootwear).FailWith(errors.New("deadline"))
	svc, logger := newTestSearch(t, repos)

	got, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear, Category: "Sandals"})
	if err != nil {
		t.Fatalf("expected legacy results despite home failure, got %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"A"}) || got[0].Catalog != domain.DomainGeneric {
		t.Fatalf("expected legacy record A, got %+v", got)
	}
	if !logger.has(searchEventHomeFailed) {
		t.Fatalf("expected home failure to be logged")
	}

	repos.Store(domain.DomainFootwear).FailWith(nil)
	repos.Store(domain.DomainGeneric).FailWith(errors.New("deadline"))
	got, err = svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear, Category: "Footwear"})
	if err != nil {
		t.Fatalf("expected home results despite legacy failure, got %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"A"}) || got[0].Catalog != domain.DomainFootwear {
		t.Fatalf("expected home record A, got %+v", got)
	}
}

func TestFederatedSearchAllSidesFailing(t *testing.T) {
	repos := footwearFixture(t)
	repos.Store(domain.DomainFootwear).FailWith(errors.New("outage"))
	repos.Store(domain.DomainGeneric).FailWith(errors.New("outage"))
	svc, _ := newTestSearch(t, repos)

	if _, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear, Category: "Footwear"}); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	// Only the home catalog is consulted without a category, so its failure is total.
	if _, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainFootwear}); !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestFederatedSearchUnknownDomain(t *testing.T) {
	svc, _ := newTestSearch(t, footwearFixture(t))
	if _, err := svc.Search(context.Background(), SearchQuery{Domain: "furniture"}); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestFederatedSearchLimitAndOrdering(t *testing.T) {
	reg := catalog.DefaultRegistry()
	repos := seededCatalogs(t, reg, map[domain.CatalogDomain][]domain.Product{
		domain.DomainToys: {
			productAt("old", "Soft Toys", 1),
			productAt("new", "Soft Toys", 3),
		},
		domain.DomainGeneric: {productAt("mid", "Soft Toys", 2)},
	})
	svc, _ := newTestSearch(t, repos)

	got, err := svc.Search(context.Background(), SearchQuery{Domain: domain.DomainToys, Category: "Soft Toys"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"new", "mid", "old"}) {
		t.Fatalf("expected newest first across catalogs, got %v", ids(got))
	}
	for _, p := range got {
		if !p.DisplayReady() {
			t.Fatalf("expected sale price on %s", p.ID)
		}
	}

	got, err = svc.Search(context.Background(), SearchQuery{Domain: domain.DomainToys, Category: "Soft Toys", Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"new", "mid"}) {
		t.Fatalf("expected limit applied after merge, got %v", ids(got))
	}
}

func TestFederatedSearchPlanForGenericSkipsLegacy(t *testing.T) {
	svc, _ := newTestSearch(t, footwearFixture(t))
	plan, err := svc.Plan(SearchQuery{Domain: domain.DomainGeneric, Category: "Watches"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Legacy != nil {
		t.Fatalf("generic home must not query itself twice, got %s", plan.Legacy)
	}
	if plan.Primary == nil || len(plan.Terms) == 0 {
		t.Fatalf("expected primary predicate with terms, got %+v", plan)
	}
}

func TestFederatedSearchPlanAddsSynonymsForDomainRoot(t *testing.T) {
	svc, _ := newTestSearch(t, footwearFixture(t))
	plan, err := svc.Plan(SearchQuery{Domain: domain.DomainFootwear, Category: "footwear"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	found := false
	for _, term := range plan.Terms {
		if term == "sandal" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected domain synonyms in root query terms, got %v", plan.Terms)
	}

	narrow, err := svc.Plan(SearchQuery{Domain: domain.DomainFootwear, Category: "Women Heels"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, term := range narrow.Terms {
		if term == "sandal" {
			t.Fatalf("narrow query must not widen to synonyms, got %v", narrow.Terms)
		}
	}
}
