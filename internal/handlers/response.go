package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/brightcart/api/internal/domain"
)

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body too large")
)

const defaultMaxBodySize = 64 * 1024

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

type productImagesPayload struct {
	Image1 string `json:"image1,omitempty"`
	Image2 string `json:"image2,omitempty"`
	Image3 string `json:"image3,omitempty"`
}

type productPayload struct {
	ID              *string              `json:"id"`
	Catalog         string               `json:"catalog,omitempty"`
	Title           string               `json:"title"`
	ListPrice       float64              `json:"listPrice"`
	DiscountPercent float64              `json:"discountPercent"`
	SalePrice       int64                `json:"salePrice"`
	Description     string               `json:"description,omitempty"`
	Category        string               `json:"category,omitempty"`
	CategoryRef     string               `json:"categoryRef,omitempty"`
	Subcategory     string               `json:"subcategory,omitempty"`
	Attributes      map[string]any       `json:"attributes,omitempty"`
	Images          productImagesPayload `json:"images"`
	CreatedAt       string               `json:"createdAt,omitempty"`
}

// buildProductPayload renders a presented product. An empty id renders as null so the
// not-found placeholder is distinguishable from a real product.
func buildProductPayload(product domain.Product) productPayload {
	payload := productPayload{
		Catalog:         product.Catalog.String(),
		Title:           product.Title,
		ListPrice:       product.ListPrice,
		DiscountPercent: product.DiscountPercent,
		Description:     product.Description,
		Category:        product.Category,
		CategoryRef:     product.CategoryRef,
		Subcategory:     product.Subcategory,
		Attributes:      product.Attributes,
		Images: productImagesPayload{
			Image1: product.Images.Image1,
			Image2: product.Images.Image2,
			Image3: product.Images.Image3,
		},
		CreatedAt: formatTime(product.CreatedAt),
	}
	if id := strings.TrimSpace(product.ID); id != "" {
		payload.ID = &id
	}
	if product.SalePrice != nil {
		payload.SalePrice = *product.SalePrice
	}
	return payload
}

func buildProductList(products []domain.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, product := range products {
		out = append(out, buildProductPayload(product))
	}
	return out
}
