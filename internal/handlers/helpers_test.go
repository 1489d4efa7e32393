package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/platform/idempotency"
	"github.com/brightcart/api/internal/repositories/memory"
	"github.com/brightcart/api/internal/services"
)

var fixtureEpoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type catalogFixture struct {
	registry *catalog.Registry
	repos    *memory.Registry
	router   chi.Router
}

func fixtureProduct(id, category string, minutes int) domain.Product {
	return domain.Product{
		ID:        id,
		Title:     id,
		ListPrice: 100,
		Category:  category,
		Images:    domain.ProductImages{Image1: "/uploads/" + id + ".jpg"},
		CreatedAt: fixtureEpoch.Add(time.Duration(minutes) * time.Minute),
	}
}

// newCatalogFixture wires the real catalog services over in-memory stores holding a
// footwear record, a legacy sandal in the generic catalog and an accessory that only
// mentions shoes.
func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	reg := catalog.DefaultRegistry()
	repos, err := memory.NewRegistry(reg)
	require.NoError(t, err)

	sandal := fixtureProduct("legacy-sandal", "Sandals", 20)
	sandal.Attributes = map[string]any{"footwearType": "Sandals"}
	sneaker := fixtureProduct("fw-sneaker", "Men Sports Shoes", 30)
	sneaker.DiscountPercent = 10
	seed := map[domain.CatalogDomain][]domain.Product{
		domain.DomainFootwear: {sneaker},
		domain.DomainGeneric:  {sandal, fixtureProduct("rack", "Shoe Rack Accessory", 40)},
	}
	for d, products := range seed {
		for _, p := range products {
			require.NoError(t, repos.Store(d).Insert(context.Background(), p))
		}
	}

	presenter := services.NewProductPresenter(services.NewImageURLNormalizer("https://shop.example.com", nil))
	resolver, err := services.NewIdentityResolver(services.IdentityResolverDeps{
		Registry:  reg,
		Catalogs:  repos,
		Presenter: presenter,
	})
	require.NoError(t, err)
	search, err := services.NewFederatedSearch(services.FederatedSearchDeps{
		Registry:  reg,
		Catalogs:  repos,
		Presenter: presenter,
	})
	require.NoError(t, err)
	lines, err := services.NewCartLineService(services.CartLineServiceDeps{Resolver: resolver})
	require.NoError(t, err)
	admin, err := services.NewProductAdminService(services.ProductAdminServiceDeps{
		Registry:    reg,
		Catalogs:    repos,
		Presenter:   presenter,
		Clock:       func() time.Time { return fixtureEpoch.Add(time.Hour) },
		IDGenerator: func() string { return "01HNEWPRODUCT" },
	})
	require.NoError(t, err)

	router := NewRouter(
		WithPublicRoutes(NewCatalogHandlers(reg, search, resolver).Routes),
		WithCartRoutes(NewCartHandlers(lines).Routes),
		WithAdminRoutes(NewAdminProductHandlers(admin).Routes),
		WithAdminMiddlewares(idempotency.Middleware(idempotency.NewMemoryStore())),
	)
	return &catalogFixture{registry: reg, repos: repos, router: router}
}

func (f *catalogFixture) failAll(err error) {
	for _, desc := range f.registry.ProbeOrder() {
		f.repos.Store(desc.Domain).FailWith(err)
	}
}

func (f *catalogFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func itemIDs(t *testing.T, body map[string]any) []string {
	t.Helper()
	items, ok := body["items"].([]any)
	require.True(t, ok, "items must be a list: %v", body)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(map[string]any)["id"].(string))
	}
	return out
}
