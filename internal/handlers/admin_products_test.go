package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/brightcart/api/internal/domain"
)

func TestCreateProductRoutesToClassifiedCatalog(t *testing.T) {
	f := newCatalogFixture(t)

	rr := f.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"title":           "  Block Heel Pump ",
		"listPrice":       999,
		"discountPercent": 10,
		"description":     `<p>Suede upper</p><script>alert(1)</script>`,
		"category":        "Women Heels",
		"attributes":      map[string]any{"shoeMaterial": " Suede ", "empty": "  "},
		"images":          []string{"/uploads/pump.jpg", " "},
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, "/api/v1/public/products/01HNEWPRODUCT", rr.Header().Get("Location"))

	product := decodeBody(t, rr)["product"].(map[string]any)
	require.Equal(t, "01HNEWPRODUCT", product["id"])
	require.Equal(t, "footwear", product["catalog"])
	require.Equal(t, "Block Heel Pump", product["title"])
	require.EqualValues(t, 899, product["salePrice"])
	require.Equal(t, "<p>Suede upper</p>", product["description"])
	require.Equal(t, map[string]any{"shoeMaterial": "Suede"}, product["attributes"])
	require.Equal(t, "https://shop.example.com/uploads/pump.jpg", product["images"].(map[string]any)["image1"])

	stored, err := f.repos.Store(domain.DomainFootwear).FindByID(context.Background(), "01HNEWPRODUCT")
	require.NoError(t, err)
	require.Equal(t, "Women Heels", stored.Category)
	require.True(t, stored.CreatedAt.Equal(fixtureEpoch.Add(time.Hour)), "unexpected createdAt %s", stored.CreatedAt)
}

func TestCreateProductValidation(t *testing.T) {
	f := newCatalogFixture(t)

	cases := map[string]struct {
		body   any
		status int
		code   string
	}{
		"missing title": {
			body:   map[string]any{"listPrice": 10, "category": "Toys", "images": []string{"a.jpg"}},
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"missing price": {
			body:   map[string]any{"title": "Kite", "category": "Toys", "images": []string{"a.jpg"}},
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"negative price": {
			body:   map[string]any{"title": "Kite", "listPrice": -1, "category": "Toys", "images": []string{"a.jpg"}},
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"no images": {
			body:   map[string]any{"title": "Kite", "listPrice": 10, "category": "Toys"},
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"unknown field": {
			body:   map[string]any{"title": "Kite", "listPrice": 10, "category": "Toys", "images": []string{"a.jpg"}, "salePrice": 5},
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/v1/admin/products", tc.body)
			require.Equal(t, tc.status, rr.Code)
			require.Equal(t, tc.code, decodeBody(t, rr)["error"])
		})
	}
	require.Zero(t, f.repos.Store(domain.DomainToys).Len())
}

func TestCreateProductConflict(t *testing.T) {
	f := newCatalogFixture(t)
	body := map[string]any{"title": "Pump", "listPrice": 10, "category": "Women Heels", "images": []string{"a.jpg"}}

	rr := f.do(t, http.MethodPost, "/api/v1/admin/products", body)
	require.Equal(t, http.StatusCreated, rr.Code)

	// The fixture mints a fixed id, so a second write collides.
	rr = f.do(t, http.MethodPost, "/api/v1/admin/products", body)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "product_conflict", decodeBody(t, rr)["error"])
}

func TestCreateProductReplaysIdempotentRetry(t *testing.T) {
	f := newCatalogFixture(t)
	body := `{"title":"Pump","listPrice":10,"category":"Women Heels","images":["a.jpg"]}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "create-pump-1")
		req.Header.Set("X-Actor-ID", "merch-ops")
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)

	// Without the key the fixed id would collide; the retry must replay instead.
	retry := send()
	require.Equal(t, http.StatusCreated, retry.Code)
	require.Equal(t, "true", retry.Header().Get("X-Idempotent-Replay"))
	require.Equal(t, first.Header().Get("Location"), retry.Header().Get("Location"))
	require.JSONEq(t, first.Body.String(), retry.Body.String())
	require.Equal(t, 2, f.repos.Store(domain.DomainFootwear).Len(), "seeded sneaker plus one created pump")
}

func TestCreateProductWithoutService(t *testing.T) {
	router := NewRouter(WithAdminRoutes(NewAdminProductHandlers(nil).Routes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
