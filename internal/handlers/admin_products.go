package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightcart/api/internal/platform/httpx"
	"github.com/brightcart/api/internal/services"
)

const (
	maxAdminProductBodySize = 64 * 1024
	actorHeader             = "X-Actor-ID"
)

// AdminProductHandlers exposes the catalog write path for operators.
type AdminProductHandlers struct {
	products services.ProductAdminService
}

// NewAdminProductHandlers constructs admin handlers backed by the product admin service.
func NewAdminProductHandlers(products services.ProductAdminService) *AdminProductHandlers {
	return &AdminProductHandlers{products: products}
}

// Routes wires the /admin product endpoints onto the provided router.
func (h *AdminProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/products", h.createProduct)
}

type createProductRequest struct {
	Title           string         `json:"title"`
	ListPrice       *float64       `json:"listPrice"`
	DiscountPercent float64        `json:"discountPercent"`
	Description     string         `json:"description"`
	Category        string         `json:"category"`
	CategoryRef     string         `json:"categoryRef"`
	Subcategory     string         `json:"subcategory"`
	Attributes      map[string]any `json:"attributes"`
	Images          []string       `json:"images"`
}

func (h *AdminProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.products == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "product administration is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminProductBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req createProductRequest
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be a valid product document", http.StatusBadRequest))
		return
	}
	if req.ListPrice == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "listPrice is required", http.StatusBadRequest))
		return
	}

	product, err := h.products.CreateProduct(ctx, services.CreateProductCommand{
		Title:           req.Title,
		ListPrice:       *req.ListPrice,
		DiscountPercent: req.DiscountPercent,
		Description:     req.Description,
		Category:        req.Category,
		CategoryRef:     req.CategoryRef,
		Subcategory:     req.Subcategory,
		Attributes:      req.Attributes,
		Images:          req.Images,
		ActorID:         strings.TrimSpace(r.Header.Get(actorHeader)),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	if product.ID != "" {
		w.Header().Set("Location", defaultAPIPrefix+"/public/products/"+product.ID)
	}
	writeJSONResponse(w, http.StatusCreated, productResponse{Product: buildProductPayload(product)})
}
