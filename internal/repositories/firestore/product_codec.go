package firestore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/brightcart/api/internal/domain"
)

// Field names of the canonical product document. Older documents use the aliases in legacyFieldAliases.
const (
	fieldTitle           = "title"
	fieldListPrice       = "listPrice"
	fieldDiscountPercent = "discountPercent"
	fieldDescription     = "description"
	fieldCategory        = "category"
	fieldCategoryRef     = "categoryRef"
	fieldSubcategory     = "subcategory"
	fieldImages          = "images"
	fieldAttributes      = "attributes"
	fieldCreatedAt       = "createdAt"
)

var legacyFieldAliases = map[string][]string{
	fieldTitle:           {"name", "productName"},
	fieldListPrice:       {"price", "mrp"},
	fieldDiscountPercent: {"discount"},
	fieldSubcategory:     {"subCategory", "sub_category"},
	fieldCreatedAt:       {"created_at", "createdOn"},
}

var legacyImageSlots = []string{"image1", "image2", "image3"}

// reservedFields are never surfaced as domain attributes.
var reservedFields = func() map[string]struct{} {
	out := map[string]struct{}{
		"id":                 {},
		"salePrice":          {},
		"updatedAt":          {},
		fieldTitle:           {},
		fieldListPrice:       {},
		fieldDiscountPercent: {},
		fieldDescription:     {},
		fieldCategory:        {},
		fieldCategoryRef:     {},
		fieldSubcategory:     {},
		fieldImages:          {},
		fieldAttributes:      {},
		fieldCreatedAt:       {},
	}
	for _, aliases := range legacyFieldAliases {
		for _, alias := range aliases {
			out[alias] = struct{}{}
		}
	}
	for _, slot := range legacyImageSlots {
		out[slot] = struct{}{}
	}
	return out
}()

// decodeProduct maps a stored document of any historical shape onto the shared product record.
// Domain attributes may live under "attributes" or at the document top level.
func decodeProduct(id string, data map[string]any, createTime time.Time) domain.Product {
	p := domain.Product{
		ID:              id,
		Title:           stringField(data, fieldTitle),
		ListPrice:       numberField(data, fieldListPrice),
		DiscountPercent: numberField(data, fieldDiscountPercent),
		Description:     stringField(data, fieldDescription),
		Category:        stringField(data, fieldCategory),
		CategoryRef:     refField(data[fieldCategoryRef]),
		Subcategory:     stringField(data, fieldSubcategory),
		Images:          decodeImages(data),
		CreatedAt:       timeField(data, fieldCreatedAt),
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = createTime
	}

	attrs := make(map[string]any)
	if nested, ok := data[fieldAttributes].(map[string]any); ok {
		for k, v := range nested {
			attrs[k] = v
		}
	}
	for k, v := range data {
		if _, reserved := reservedFields[k]; reserved {
			continue
		}
		if _, set := attrs[k]; !set {
			attrs[k] = v
		}
	}
	if len(attrs) > 0 {
		p.Attributes = attrs
	}
	return p
}

// encodeProduct writes the canonical document shape. The sale price is derived and never stored.
func encodeProduct(p domain.Product) map[string]any {
	doc := map[string]any{
		fieldTitle:           p.Title,
		fieldListPrice:       p.ListPrice,
		fieldDiscountPercent: p.DiscountPercent,
		fieldDescription:     p.Description,
		fieldCategory:        p.Category,
		fieldCreatedAt:       p.CreatedAt.UTC(),
	}
	if p.CategoryRef != "" {
		doc[fieldCategoryRef] = p.CategoryRef
	}
	if p.Subcategory != "" {
		doc[fieldSubcategory] = p.Subcategory
	}
	images := map[string]any{}
	for i, v := range p.Images.Slots() {
		if v != "" {
			images[legacyImageSlots[i]] = v
		}
	}
	doc[fieldImages] = images
	if len(p.Attributes) > 0 {
		attrs := make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			attrs[k] = v
		}
		doc[fieldAttributes] = attrs
	}
	return doc
}

func decodeImages(data map[string]any) domain.ProductImages {
	var images domain.ProductImages
	switch v := data[fieldImages].(type) {
	case map[string]any:
		images.Image1 = asString(v["image1"])
		images.Image2 = asString(v["image2"])
		images.Image3 = asString(v["image3"])
	case []any:
		for _, entry := range v {
			switch item := entry.(type) {
			case string:
				images.Gallery = append(images.Gallery, item)
			case map[string]any:
				if url := asString(item["url"]); url != "" {
					images.Gallery = append(images.Gallery, url)
				}
			}
		}
	}
	// oldest documents kept the slots at the top level
	if images.Image1 == "" && images.Image2 == "" && images.Image3 == "" {
		images.Image1 = asString(data["image1"])
		images.Image2 = asString(data["image2"])
		images.Image3 = asString(data["image3"])
	}
	return images
}

func lookup(data map[string]any, field string) (any, bool) {
	if v, ok := data[field]; ok && v != nil {
		return v, true
	}
	for _, alias := range legacyFieldAliases[field] {
		if v, ok := data[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(data map[string]any, field string) string {
	v, ok := lookup(data, field)
	if !ok {
		return ""
	}
	return asString(v)
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func numberField(data map[string]any, field string) float64 {
	v, ok := lookup(data, field)
	if !ok {
		return 0
	}
	var out float64
	switch n := v.(type) {
	case int64:
		out = float64(n)
	case int:
		out = float64(n)
	case float64:
		out = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		out = parsed
	default:
		return 0
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

func timeField(data map[string]any, field string) time.Time {
	v, ok := lookup(data, field)
	if !ok {
		return time.Time{}
	}
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(ts)); err == nil {
				return parsed.UTC()
			}
		}
	case int64:
		return time.UnixMilli(ts).UTC()
	}
	return time.Time{}
}

func refField(v any) string {
	switch ref := v.(type) {
	case *firestore.DocumentRef:
		if ref == nil {
			return ""
		}
		return ref.ID
	default:
		return asString(v)
	}
}
