package catalog

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/brightcart/api/internal/domain"
)

// FilterKind describes how an attribute filter value is compared.
type FilterKind int

const (
	// FilterString matches by case-insensitive substring.
	FilterString FilterKind = iota
	// FilterBool matches by exact boolean equality.
	FilterBool
)

// Descriptor describes one catalog partition.
type Descriptor struct {
	Domain       domain.CatalogDomain
	Collection   string
	DefaultLabel string
	// Synonyms are normalized fragments recognising free-text categories of this domain.
	Synonyms []string
	// Filters lists the attribute keys the catalog supports as search filters.
	Filters map[string]FilterKind
	// DefiningAttributes identify records of this domain in the generic catalog
	// regardless of their category text.
	DefiningAttributes []string
}

// SupportsFilter returns the kind of a supported filter key.
func (d Descriptor) SupportsFilter(key string) (FilterKind, bool) {
	kind, ok := d.Filters[key]
	return kind, ok
}

// DefaultDescriptors returns the six storefront catalogs in their default probe order.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Domain:       domain.DomainClothing,
			Collection:   "clothingProducts",
			DefaultLabel: "Clothing",
			Synonyms:     []string{"clothing", "cloth", "apparel", "dress", "shirt", "jean", "trouser", "kurta", "saree", "skirt", "jacket", "legging"},
			Filters: map[string]FilterKind{
				"clothingType": FilterString,
				"gender":       FilterString,
				"ageGroup":     FilterString,
				"fabric":       FilterString,
			},
			DefiningAttributes: []string{"clothingType", "fabric"},
		},
		{
			Domain:       domain.DomainFootwear,
			Collection:   "footwearProducts",
			DefaultLabel: "Footwear",
			Synonyms:     []string{"footwear", "shoe", "sandal", "slipper", "boot", "sneaker", "heel", "flip flop"},
			Filters: map[string]FilterKind{
				"footwearType": FilterString,
				"shoeMaterial": FilterString,
				"soleMaterial": FilterString,
			},
			DefiningAttributes: []string{"footwearType", "shoeMaterial", "soleMaterial"},
		},
		{
			Domain:       domain.DomainAccessories,
			Collection:   "accessoriesProducts",
			DefaultLabel: "Accessories",
			Synonyms:     []string{"accessories", "accessory", "watch", "belt", "wallet", "sunglass", "jewel", "bag", "handbag", "backpack"},
			Filters: map[string]FilterKind{
				"accessoryType": FilterString,
				"material":      FilterString,
				"watchType":     FilterString,
				"watchBrand":    FilterString,
			},
			DefiningAttributes: []string{"accessoryType", "watchType", "watchBrand"},
		},
		{
			Domain:       domain.DomainBabyCare,
			Collection:   "babyCareProducts",
			DefaultLabel: "Baby Care",
			Synonyms:     []string{"baby care", "babycare", "baby", "diaper", "infant", "newborn", "wipes"},
			Filters: map[string]FilterKind{
				"babyCareType":   FilterString,
				"ageRange":       FilterString,
				"safetyStandard": FilterString,
			},
			DefiningAttributes: []string{"babyCareType", "safetyStandard"},
		},
		{
			Domain:       domain.DomainToys,
			Collection:   "toysProducts",
			DefaultLabel: "Toys",
			Synonyms:     []string{"toy", "puzzle", "doll", "board game", "action figure", "building block"},
			Filters: map[string]FilterKind{
				"toyType":         FilterString,
				"batteryRequired": FilterBool,
				"batteryIncluded": FilterBool,
			},
			DefiningAttributes: []string{"toyType", "batteryRequired"},
		},
		{
			Domain:       domain.DomainGeneric,
			Collection:   "products",
			DefaultLabel: "Products",
		},
	}
}

// Registry is the immutable, ordered set of catalog descriptors.
type Registry struct {
	byDomain map[domain.CatalogDomain]Descriptor
	order    []domain.CatalogDomain
}

// NewRegistry builds a registry. probeOrder overrides the descriptor order for identity probing;
// omitted domains keep their relative order after the listed ones and the generic catalog is always last.
func NewRegistry(descriptors []Descriptor, probeOrder []domain.CatalogDomain) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, errors.New("catalog registry: at least one descriptor is required")
	}

	reg := &Registry{byDomain: make(map[domain.CatalogDomain]Descriptor, len(descriptors))}
	declared := make([]domain.CatalogDomain, 0, len(descriptors))
	for _, desc := range descriptors {
		if desc.Domain == "" {
			return nil, errors.New("catalog registry: descriptor domain is required")
		}
		if strings.TrimSpace(desc.Collection) == "" {
			return nil, fmt.Errorf("catalog registry: collection is required for %s", desc.Domain)
		}
		if _, dup := reg.byDomain[desc.Domain]; dup {
			return nil, fmt.Errorf("catalog registry: duplicate domain %s", desc.Domain)
		}
		desc.Synonyms = normalizeAll(desc.Synonyms)
		reg.byDomain[desc.Domain] = desc
		declared = append(declared, desc.Domain)
	}
	if _, ok := reg.byDomain[domain.DomainGeneric]; !ok {
		return nil, errors.New("catalog registry: generic catalog is required")
	}

	seen := make(map[domain.CatalogDomain]struct{}, len(declared))
	appendDomain := func(d domain.CatalogDomain) {
		if d == domain.DomainGeneric {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		reg.order = append(reg.order, d)
	}
	for _, d := range probeOrder {
		if _, ok := reg.byDomain[d]; !ok {
			return nil, fmt.Errorf("catalog registry: probe order names unknown domain %q", d)
		}
		appendDomain(d)
	}
	for _, d := range declared {
		appendDomain(d)
	}
	reg.order = append(reg.order, domain.DomainGeneric)

	return reg, nil
}

// DefaultRegistry returns the registry of DefaultDescriptors in their declared order.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultDescriptors(), nil)
	if err != nil {
		panic(err)
	}
	return reg
}

// Descriptor returns the descriptor for d.
func (r *Registry) Descriptor(d domain.CatalogDomain) (Descriptor, bool) {
	desc, ok := r.byDomain[d]
	return desc, ok
}

// Generic returns the legacy catch-all catalog descriptor.
func (r *Registry) Generic() Descriptor {
	return r.byDomain[domain.DomainGeneric]
}

// ProbeOrder returns the descriptors in identity probing priority, generic last.
func (r *Registry) ProbeOrder() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, d := range r.order {
		out = append(out, r.byDomain[d])
	}
	return out
}

// Priority returns the probe position of d; lower is more authoritative.
func (r *Registry) Priority(d domain.CatalogDomain) int {
	for i, candidate := range r.order {
		if candidate == d {
			return i
		}
	}
	return len(r.order)
}

// ParseDomain resolves a path or query value to a registered domain.
func (r *Registry) ParseDomain(raw string) (domain.CatalogDomain, bool) {
	key := strings.ReplaceAll(Normalize(raw), " ", "")
	if key == "" {
		return "", false
	}
	for _, d := range r.order {
		desc := r.byDomain[d]
		if key == string(d) || key == strings.ReplaceAll(Normalize(desc.DefaultLabel), " ", "") {
			return d, true
		}
	}
	return "", false
}

// Classify picks the domain whose synonyms recognise category. Synonyms match at word starts,
// so "heel" recognises "heels" but not "wheels". The final word of a multi-word category is
// consulted first so "Shoe Rack Accessory" is an accessory; otherwise the first domain in probe
// order with a synonym anywhere in the category wins. Unrecognised categories classify as generic.
func (r *Registry) Classify(category string) domain.CatalogDomain {
	words := strings.Fields(Normalize(category))
	if len(words) == 0 {
		return domain.DomainGeneric
	}
	if len(words) > 1 {
		head := words[len(words)-1:]
		for _, d := range r.order {
			if r.synonymWithin(d, head) {
				return d
			}
		}
	}
	for _, d := range r.order {
		if r.synonymWithin(d, words) {
			return d
		}
	}
	return domain.DomainGeneric
}

// IsDomainRoot reports whether a normalized category names the domain itself rather than a narrower label.
func (r *Registry) IsDomainRoot(d domain.CatalogDomain, normCategory string) bool {
	desc, ok := r.byDomain[d]
	if !ok || normCategory == "" {
		return false
	}
	if normCategory == string(d) || normCategory == Normalize(desc.DefaultLabel) {
		return true
	}
	for _, syn := range desc.Synonyms {
		if normCategory == syn || normCategory == syn+"s" {
			return true
		}
	}
	return false
}

func (r *Registry) synonymWithin(d domain.CatalogDomain, words []string) bool {
	for _, syn := range r.byDomain[d].Synonyms {
		if wordsStartWith(words, strings.Fields(syn)) {
			return true
		}
	}
	return false
}

// wordsStartWith reports whether phrase occurs in words as a run of consecutive words, each
// beginning with the matching phrase word.
func wordsStartWith(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		matched := true
		for j, part := range phrase {
			if !strings.HasPrefix(words[i+j], part) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
