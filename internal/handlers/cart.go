package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/platform/httpx"
	"github.com/brightcart/api/internal/services"
)

const (
	maxCartBodySize = 16 * 1024
	maxCartLines    = 100
)

// CartHandlers renders stored cart lines against the live catalogs.
type CartHandlers struct {
	lines services.CartLineService
}

// NewCartHandlers constructs handlers backed by the cart line service.
func NewCartHandlers(lines services.CartLineService) *CartHandlers {
	return &CartHandlers{lines: lines}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/lines:resolve", h.resolveLines)
}

type resolveLinesRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
	} `json:"items"`
}

type cartLinePayload struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Size      string         `json:"size,omitempty"`
	Found     bool           `json:"found"`
	LineTotal int64          `json:"lineTotal"`
	Product   productPayload `json:"product"`
}

type resolveLinesResponse struct {
	Lines    []cartLinePayload `json:"lines"`
	Subtotal int64             `json:"subtotal"`
	Missing  int               `json:"missing"`
}

func (h *CartHandlers) resolveLines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.lines == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req resolveLinesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if len(req.Items) > maxCartLines {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "too many cart lines", http.StatusBadRequest))
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
		})
	}

	summary, err := h.lines.ResolveLines(ctx, items)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	resp := resolveLinesResponse{
		Lines:    make([]cartLinePayload, 0, len(summary.Lines)),
		Subtotal: summary.Subtotal,
		Missing:  summary.Missing,
	}
	for _, line := range summary.Lines {
		resp.Lines = append(resp.Lines, cartLinePayload{
			ProductID: line.Item.ProductID,
			Quantity:  line.Item.Quantity,
			Size:      line.Item.Size,
			Found:     line.Found,
			LineTotal: line.LineTotal,
			Product:   buildProductPayload(line.Product),
		})
	}
	writeJSONResponse(w, http.StatusOK, resp)
}
