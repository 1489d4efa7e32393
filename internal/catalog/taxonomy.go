package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// ErrInvalidTaxonomy is returned when a taxonomy document fails validation.
var ErrInvalidTaxonomy = errors.New("catalog taxonomy: invalid document")

type taxonomyDocument struct {
	Version string           `yaml:"version"`
	Parents []parentDocument `yaml:"parents"`
	Aliases []aliasDocument  `yaml:"aliases"`
}

type parentDocument struct {
	Label    string   `yaml:"label"`
	Children []string `yaml:"children"`
}

type aliasDocument struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// Taxonomy maps parent labels to child subcategories and historical label variants to canonical labels.
// Lookups are case-insensitive exact matches on the display label; hyphens are not folded.
// A Taxonomy is read-only once loaded and safe for concurrent use.
type Taxonomy struct {
	version  string
	children map[string][]string
	aliases  map[string]string
}

// DefaultTaxonomy returns the taxonomy compiled into the binary.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomyYAML)
}

// LoadTaxonomyFile reads a YAML taxonomy from disk. An empty path yields the default taxonomy.
func LoadTaxonomyFile(path string) (*Taxonomy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTaxonomy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog taxonomy: read %s: %w", path, err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and validates a YAML taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var doc taxonomyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog taxonomy: decode: %w", err)
	}

	t := &Taxonomy{
		version:  strings.TrimSpace(doc.Version),
		children: make(map[string][]string, len(doc.Parents)),
		aliases:  make(map[string]string),
	}

	for i, parent := range doc.Parents {
		label := strings.TrimSpace(parent.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: parents[%d] has an empty label", ErrInvalidTaxonomy, i)
		}
		key := foldKey(label)
		if _, dup := t.children[key]; dup {
			return nil, fmt.Errorf("%w: parent %q declared twice", ErrInvalidTaxonomy, label)
		}
		seen := map[string]struct{}{key: {}}
		kids := make([]string, 0, len(parent.Children))
		for _, child := range parent.Children {
			child = strings.TrimSpace(child)
			if child == "" {
				return nil, fmt.Errorf("%w: parent %q has an empty child", ErrInvalidTaxonomy, label)
			}
			childKey := foldKey(child)
			if childKey == key {
				return nil, fmt.Errorf("%w: parent %q lists itself as a child", ErrInvalidTaxonomy, label)
			}
			if _, dup := seen[childKey]; dup {
				continue
			}
			seen[childKey] = struct{}{}
			kids = append(kids, child)
		}
		t.children[key] = kids
	}

	canonicals := make(map[string]struct{})
	for i, alias := range doc.Aliases {
		canonical := strings.TrimSpace(alias.Canonical)
		if canonical == "" {
			return nil, fmt.Errorf("%w: aliases[%d] has an empty canonical label", ErrInvalidTaxonomy, i)
		}
		canonicals[foldKey(canonical)] = struct{}{}
		for _, variant := range alias.Variants {
			variant = strings.TrimSpace(variant)
			if variant == "" {
				return nil, fmt.Errorf("%w: alias %q has an empty variant", ErrInvalidTaxonomy, canonical)
			}
			key := foldKey(variant)
			if key == foldKey(canonical) {
				continue
			}
			if existing, ok := t.aliases[key]; ok && foldKey(existing) != foldKey(canonical) {
				return nil, fmt.Errorf("%w: variant %q maps to both %q and %q", ErrInvalidTaxonomy, variant, existing, canonical)
			}
			t.aliases[key] = canonical
		}
	}

	// Aliases resolve in a single step, so a canonical label must not itself be a variant.
	for key := range canonicals {
		if target, ok := t.aliases[key]; ok {
			return nil, fmt.Errorf("%w: canonical label %q is also a variant of %q", ErrInvalidTaxonomy, key, target)
		}
	}

	return t, nil
}

// Version reports the version string declared by the taxonomy document.
func (t *Taxonomy) Version() string {
	if t == nil {
		return ""
	}
	return t.version
}

// Alias returns the canonical label for a known historical variant, or label unchanged.
func (t *Taxonomy) Alias(label string) string {
	if t == nil || label == "" {
		return label
	}
	if canonical, ok := t.aliases[foldKey(label)]; ok {
		return canonical
	}
	return label
}

// Expand returns label followed by its declared children when label is a known parent,
// otherwise just label. The result preserves declaration order and holds no duplicates.
func (t *Taxonomy) Expand(label string) []string {
	if label == "" {
		return []string{}
	}
	if t == nil {
		return []string{label}
	}
	kids, ok := t.children[foldKey(label)]
	if !ok {
		return []string{label}
	}
	out := make([]string, 0, len(kids)+1)
	out = append(out, label)
	out = append(out, kids...)
	return out
}

// IsParent reports whether label declares children.
func (t *Taxonomy) IsParent(label string) bool {
	if t == nil {
		return false
	}
	_, ok := t.children[foldKey(label)]
	return ok
}
