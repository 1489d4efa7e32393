package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultTaxonomyExpandsParent(t *testing.T) {
	tax, err := DefaultTaxonomy()
	if err != nil {
		t.Fatalf("DefaultTaxonomy: %v", err)
	}
	got := tax.Expand("Men's Shoes")
	want := []string{"Men's Shoes", "Men Sports Shoes", "Men Casual Shoes", "Men Formal Shoes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Expand = %v, want %v", got, want)
	}
	if tax.Version() == "" {
		t.Fatalf("expected version to be populated")
	}
}

func TestTaxonomyLookupsAreCaseInsensitiveExact(t *testing.T) {
	tax, err := ParseTaxonomy([]byte(`
version: "1"
parents:
  - label: "Men's Shoes"
    children: [Men Sports Shoes, Men Casual Shoes]
aliases:
  - canonical: Women Watches
    variants: [Womens Watches, Ladies Watch]
`))
	if err != nil {
		t.Fatalf("ParseTaxonomy: %v", err)
	}

	if got := tax.Expand("MEN'S SHOES"); len(got) != 3 || got[0] != "MEN'S SHOES" {
		t.Fatalf("expected case-insensitive parent match, got %v", got)
	}
	if got := tax.Expand("Sandals"); !reflect.DeepEqual(got, []string{"Sandals"}) {
		t.Fatalf("expected unknown label to expand to itself, got %v", got)
	}
	if got := tax.Alias("womens watches"); got != "Women Watches" {
		t.Fatalf("Alias = %q, want canonical", got)
	}
	if got := tax.Alias("Ladies Watch"); got != "Women Watches" {
		t.Fatalf("Alias = %q, want canonical", got)
	}
	// hyphenated forms are not folded before alias lookup
	if got := tax.Alias("Womens-Watches"); got != "Womens-Watches" {
		t.Fatalf("Alias = %q, want label unchanged", got)
	}
	if got := tax.Alias("Boots"); got != "Boots" {
		t.Fatalf("Alias = %q, want label unchanged", got)
	}
}

func TestTaxonomyExpandDeduplicates(t *testing.T) {
	tax, err := ParseTaxonomy([]byte(`
parents:
  - label: Toys
    children: [Soft Toys, soft toys, Board Games]
`))
	if err != nil {
		t.Fatalf("ParseTaxonomy: %v", err)
	}
	want := []string{"toys", "Soft Toys", "Board Games"}
	if got := tax.Expand("toys"); !reflect.DeepEqual(got, want) {
		t.Fatalf("Expand = %v", got)
	}
}

func TestParseTaxonomyRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty parent": `
parents:
  - label: ""
    children: [A]`,
		"self child": `
parents:
  - label: Toys
    children: [toys]`,
		"duplicate parent": `
parents:
  - label: Toys
  - label: TOYS`,
		"alias chain": `
aliases:
  - canonical: Women Watches
    variants: [Ladies Watches]
  - canonical: Ladies Watches
    variants: [Ladies Watch]`,
		"conflicting variant": `
aliases:
  - canonical: A
    variants: [x]
  - canonical: B
    variants: [X]`,
	}
	for name, doc := range cases {
		if _, err := ParseTaxonomy([]byte(doc)); !errors.Is(err, ErrInvalidTaxonomy) {
			t.Fatalf("%s: expected ErrInvalidTaxonomy, got %v", name, err)
		}
	}
}

func TestLoadTaxonomyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	if err := os.WriteFile(path, []byte("version: v9\nparents:\n  - label: Bags\n    children: [Wallets]\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	tax, err := LoadTaxonomyFile(path)
	if err != nil {
		t.Fatalf("LoadTaxonomyFile: %v", err)
	}
	if tax.Version() != "v9" || !tax.IsParent("bags") {
		t.Fatalf("unexpected taxonomy %+v", tax)
	}

	if _, err := LoadTaxonomyFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	def, err := LoadTaxonomyFile("")
	if err != nil || !def.IsParent("Watches") {
		t.Fatalf("expected default taxonomy for empty path, err=%v", err)
	}
}
