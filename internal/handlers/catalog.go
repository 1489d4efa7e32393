package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightcart/api/internal/catalog"
	"github.com/brightcart/api/internal/platform/httpx"
	"github.com/brightcart/api/internal/services"
)

const maxSearchLimit = 200

var reservedSearchParams = map[string]struct{}{
	"category":    {},
	"subcategory": {},
	"limit":       {},
}

// CatalogHandlers exposes public catalog browse and product lookup endpoints.
type CatalogHandlers struct {
	registry *catalog.Registry
	search   services.CatalogSearch
	resolver services.IdentityResolver
}

// NewCatalogHandlers constructs catalog handlers. The registry maps path segments to catalogs.
func NewCatalogHandlers(registry *catalog.Registry, search services.CatalogSearch, resolver services.IdentityResolver) *CatalogHandlers {
	if registry == nil {
		registry = catalog.DefaultRegistry()
	}
	return &CatalogHandlers{
		registry: registry,
		search:   search,
		resolver: resolver,
	}
}

// Routes wires the public catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/catalogs/{domain}/products", h.searchProducts)
	r.Get("/products/{productID}", h.getProduct)
}

type productListResponse struct {
	Catalog  string           `json:"catalog"`
	Items    []productPayload `json:"items"`
	Count    int              `json:"count"`
	Category string           `json:"category,omitempty"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

func (h *CatalogHandlers) searchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.search == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog search is unavailable", http.StatusServiceUnavailable))
		return
	}

	rawDomain := chi.URLParam(r, "domain")
	catalogDomain, ok := h.registry.ParseDomain(rawDomain)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_not_found", fmt.Sprintf("catalog %q not found", rawDomain), http.StatusNotFound))
		return
	}

	query, err := parseSearchQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	query.Domain = catalogDomain

	products, err := h.search.Search(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productListResponse{
		Catalog:  catalogDomain.String(),
		Items:    buildProductList(products),
		Count:    len(products),
		Category: strings.TrimSpace(query.Category),
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.resolver == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "product lookup is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.resolver.ResolveByID(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

// parseSearchQuery splits the query string into the category, subcategory and limit
// parameters and treats every other parameter as an attribute filter.
func parseSearchQuery(r *http.Request) (services.SearchQuery, error) {
	values := r.URL.Query()
	query := services.SearchQuery{
		Category:    strings.TrimSpace(values.Get("category")),
		Subcategory: strings.TrimSpace(values.Get("subcategory")),
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return services.SearchQuery{}, errors.New("limit must be a non-negative integer")
		}
		if limit > maxSearchLimit {
			limit = maxSearchLimit
		}
		query.Limit = limit
	}

	for key, vals := range values {
		if _, reserved := reservedSearchParams[key]; reserved || len(vals) == 0 {
			continue
		}
		if query.Filters == nil {
			query.Filters = make(map[string]string)
		}
		query.Filters[key] = vals[0]
	}
	return query, nil
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUnknownDomain):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_not_found", "catalog not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalogs are temporarily unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductConflict):
		httpx.WriteError(ctx, w, httpx.NewError("product_conflict", "product already exists", http.StatusConflict))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_timeout", "catalog request timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load catalog data", http.StatusInternalServerError))
	}
}
