package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	domain "github.com/brightcart/api/internal/domain"
)

// Predicate decides whether a product record matches a catalog query.
type Predicate interface {
	Match(p domain.Product) bool
	String() string
}

// ProductField selects a free-text product field for matching.
type ProductField string

const (
	FieldCategory    ProductField = "category"
	FieldSubcategory ProductField = "subcategory"
)

func (f ProductField) value(p domain.Product) string {
	switch f {
	case FieldCategory:
		return p.Category
	case FieldSubcategory:
		return p.Subcategory
	default:
		return ""
	}
}

type matchAll struct{}

// MatchAll matches every record.
func MatchAll() Predicate { return matchAll{} }

func (matchAll) Match(domain.Product) bool { return true }
func (matchAll) String() string            { return "*" }

type andPredicate []Predicate

// And matches when every operand matches. Nil operands are dropped; And() matches everything.
func And(preds ...Predicate) Predicate {
	out := compact(preds)
	switch len(out) {
	case 0:
		return MatchAll()
	case 1:
		return out[0]
	}
	return andPredicate(out)
}

func (a andPredicate) Match(p domain.Product) bool {
	for _, pred := range a {
		if !pred.Match(p) {
			return false
		}
	}
	return true
}

func (a andPredicate) String() string { return join("AND", a) }

type orPredicate []Predicate

// Or matches when any operand matches. Or() with no operands matches nothing.
func Or(preds ...Predicate) Predicate {
	out := compact(preds)
	if len(out) == 1 {
		return out[0]
	}
	return orPredicate(out)
}

func (o orPredicate) Match(p domain.Product) bool {
	for _, pred := range o {
		if pred.Match(p) {
			return true
		}
	}
	return false
}

func (o orPredicate) String() string {
	if len(o) == 0 {
		return "false"
	}
	return join("OR", o)
}

type fieldContains struct {
	field ProductField
	term  string
}

// FieldContains matches when the normalized field value contains the normalized term.
// An empty term never matches.
func FieldContains(field ProductField, term string) Predicate {
	return fieldContains{field: field, term: Normalize(term)}
}

func (f fieldContains) Match(p domain.Product) bool {
	return containsFolded(f.field.value(p), f.term)
}

func (f fieldContains) String() string { return fmt.Sprintf("%s~%q", f.field, f.term) }

type attributeContains struct {
	key  string
	term string
}

// AttributeContains matches string-valued attributes by case-insensitive substring.
func AttributeContains(key, term string) Predicate {
	return attributeContains{key: key, term: Normalize(term)}
}

func (a attributeContains) Match(p domain.Product) bool {
	raw, ok := p.Attribute(a.key)
	if !ok || raw == nil {
		return false
	}
	return containsFolded(fmt.Sprint(raw), a.term)
}

func (a attributeContains) String() string { return fmt.Sprintf("attr.%s~%q", a.key, a.term) }

type attributeBool struct {
	key  string
	want bool
}

// AttributeBool matches boolean attributes exactly. Stored strings such as "true" are accepted.
func AttributeBool(key string, want bool) Predicate {
	return attributeBool{key: key, want: want}
}

func (a attributeBool) Match(p domain.Product) bool {
	raw, ok := p.Attribute(a.key)
	if !ok {
		return false
	}
	switch v := raw.(type) {
	case bool:
		return v == a.want
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed == a.want
	default:
		return false
	}
}

func (a attributeBool) String() string { return fmt.Sprintf("attr.%s==%t", a.key, a.want) }

type attributeExists struct {
	keys []string
}

// AttributeExists matches records carrying a non-empty value under any of keys.
func AttributeExists(keys ...string) Predicate {
	return attributeExists{keys: append([]string(nil), keys...)}
}

func (a attributeExists) Match(p domain.Product) bool {
	for _, key := range a.keys {
		raw, ok := p.Attribute(key)
		if !ok || raw == nil {
			continue
		}
		if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return true
	}
	return false
}

func (a attributeExists) String() string { return fmt.Sprintf("has(%s)", strings.Join(a.keys, "|")) }

type classifiedAs struct {
	registry *Registry
	domain   domain.CatalogDomain
}

// ClassifiedAs matches records whose category classifies into d under the registry's synonym rules.
func ClassifiedAs(registry *Registry, d domain.CatalogDomain) Predicate {
	return classifiedAs{registry: registry, domain: d}
}

func (c classifiedAs) Match(p domain.Product) bool {
	if c.registry == nil {
		return false
	}
	return c.registry.Classify(p.Category) == c.domain
}

func (c classifiedAs) String() string { return fmt.Sprintf("domain(category)==%s", c.domain) }

// AttributeFilters builds one AND clause per supported filter. Unsupported keys and
// unparseable boolean values are skipped. Clauses are emitted in key order.
func AttributeFilters(desc Descriptor, filters map[string]string) []Predicate {
	if len(filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Predicate
	for _, key := range keys {
		value := strings.TrimSpace(filters[key])
		if value == "" {
			continue
		}
		kind, ok := desc.SupportsFilter(key)
		if !ok {
			continue
		}
		switch kind {
		case FilterBool:
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				continue
			}
			out = append(out, AttributeBool(key, parsed))
		default:
			out = append(out, AttributeContains(key, value))
		}
	}
	return out
}

func compact(preds []Predicate) []Predicate {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func join(op string, preds []Predicate) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}
