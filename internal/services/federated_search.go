package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/platform/textutil"
	"github.com/brightcart/api/internal/repositories"
)

const (
	searchEventHomeFailed   = "catalog.search.home_failed"
	searchEventLegacyFailed = "catalog.search.legacy_failed"
)

// FederatedSearchDeps bundles collaborators required by the federated search service.
type FederatedSearchDeps struct {
	Registry  *catalog.Registry
	Taxonomy  *catalog.Taxonomy
	Catalogs  repositories.Registry
	Presenter *ProductPresenter
	Metrics   CatalogMetrics
	Logger    LogFunc
}

// SearchPlan holds the predicates a query compiles to. Legacy is nil when the generic
// catalog is not consulted.
type SearchPlan struct {
	Home    catalog.Descriptor
	Terms   []string
	Primary catalog.Predicate
	Legacy  catalog.Predicate
}

type federatedSearch struct {
	registry  *catalog.Registry
	taxonomy  *catalog.Taxonomy
	catalogs  repositories.Registry
	presenter *ProductPresenter
	metrics   CatalogMetrics
	logger    LogFunc
}

var _ CatalogSearch = (*federatedSearch)(nil)

// NewFederatedSearch constructs the browse service spanning a domain catalog and the generic catalog.
func NewFederatedSearch(deps FederatedSearchDeps) (CatalogSearch, error) {
	if deps.Registry == nil {
		return nil, errors.New("federated search: catalog registry is required")
	}
	if deps.Catalogs == nil {
		return nil, errors.New("federated search: repository registry is required")
	}
	taxonomy := deps.Taxonomy
	if taxonomy == nil {
		var err error
		if taxonomy, err = catalog.DefaultTaxonomy(); err != nil {
			return nil, fmt.Errorf("federated search: %w", err)
		}
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = NewProductPresenter(nil)
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &federatedSearch{
		registry:  deps.Registry,
		taxonomy:  taxonomy,
		catalogs:  deps.Catalogs,
		presenter: presenter,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Plan compiles a query into the home and legacy predicates without touching storage.
func (s *federatedSearch) Plan(query SearchQuery) (SearchPlan, error) {
	desc, ok := s.registry.Descriptor(query.Domain)
	if !ok {
		return SearchPlan{}, fmt.Errorf("%w: %q", ErrUnknownDomain, query.Domain)
	}

	attrs := catalog.AttributeFilters(desc, textutil.NormalizeStringMap(query.Filters))

	var subClause catalog.Predicate
	if sub := catalog.Normalize(query.Subcategory); sub != "" {
		subClause = catalog.Or(
			catalog.FieldContains(catalog.FieldSubcategory, sub),
			catalog.FieldContains(catalog.FieldCategory, sub),
		)
	}

	rawCategory := strings.TrimSpace(query.Category)
	if rawCategory == "" {
		return SearchPlan{
			Home:    desc,
			Primary: catalog.And(append([]catalog.Predicate{subClause}, attrs...)...),
		}, nil
	}

	terms, root := s.categoryTerms(desc, rawCategory)
	termClauses := make([]catalog.Predicate, 0, len(terms))
	for _, term := range terms {
		termClauses = append(termClauses, catalog.FieldContains(catalog.FieldCategory, term))
	}
	termClause := catalog.Or(termClauses...)

	plan := SearchPlan{
		Home:    desc,
		Terms:   terms,
		Primary: catalog.And(append([]catalog.Predicate{termClause, subClause}, attrs...)...),
	}
	if desc.Domain == s.registry.Generic().Domain {
		return plan, nil
	}

	belongs := catalog.Or(
		catalog.ClassifiedAs(s.registry, desc.Domain),
		catalog.AttributeExists(desc.DefiningAttributes...),
	)
	legacyTerms := termClause
	if root {
		legacyTerms = catalog.Or(termClause, catalog.AttributeExists(desc.DefiningAttributes...))
	}
	plan.Legacy = catalog.And(append([]catalog.Predicate{belongs, legacyTerms, subClause}, attrs...)...)
	return plan, nil
}

// categoryTerms resolves aliases, expands parents, and adds domain synonyms for root labels.
// Aliases are looked up on the raw label while expansion sees both forms.
func (s *federatedSearch) categoryTerms(desc catalog.Descriptor, raw string) ([]string, bool) {
	var terms []string
	seen := map[string]struct{}{}
	add := func(values ...string) {
		for _, value := range values {
			term := catalog.Normalize(value)
			if term == "" {
				continue
			}
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}

	aliased := s.taxonomy.Alias(raw)
	normCategory := catalog.Normalize(aliased)
	add(aliased)
	add(s.taxonomy.Expand(raw)...)
	if aliased != raw {
		add(s.taxonomy.Expand(aliased)...)
	}

	root := s.registry.IsDomainRoot(desc.Domain, normCategory)
	if root {
		add(desc.DefaultLabel, desc.Domain.String())
		add(desc.Synonyms...)
	}
	return terms, root
}

func (s *federatedSearch) Search(ctx context.Context, query SearchQuery) ([]domain.Product, error) {
	plan, err := s.Plan(query)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "catalog.search", trace.WithAttributes(
		attribute.String("catalog.domain", plan.Home.Domain.String()),
		attribute.String("catalog.category", strings.TrimSpace(query.Category)),
		attribute.Bool("catalog.legacy", plan.Legacy != nil),
	))
	defer span.End()

	var (
		primary, legacy       []domain.Product
		primaryErr, legacyErr error
		g                     errgroup.Group
	)
	g.Go(func() error {
		primary, primaryErr = s.find(ctx, plan.Home.Domain, plan.Primary)
		return nil
	})
	generic := s.registry.Generic().Domain
	if plan.Legacy != nil {
		g.Go(func() error {
			legacy, legacyErr = s.find(ctx, generic, plan.Legacy)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if primaryErr != nil {
		s.metrics.ProbeFailed(ctx, plan.Home.Domain, "search")
		s.logger(ctx, searchEventHomeFailed, map[string]any{
			"catalog": plan.Home.Domain.String(),
			"error":   primaryErr.Error(),
		})
	}
	if legacyErr != nil {
		s.metrics.ProbeFailed(ctx, generic, "search")
		s.logger(ctx, searchEventLegacyFailed, map[string]any{
			"catalog": generic.String(),
			"error":   legacyErr.Error(),
		})
	}
	if primaryErr != nil && (plan.Legacy == nil || legacyErr != nil) {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, errors.Join(primaryErr, legacyErr))
	}

	merged := mergeByID(primary, legacy)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if query.Limit > 0 && len(merged) > query.Limit {
		merged = merged[:query.Limit]
	}
	span.SetAttributes(attribute.Int("catalog.results", len(merged)))
	return s.presenter.PresentAll(merged), nil
}

func (s *federatedSearch) find(ctx context.Context, d domain.CatalogDomain, pred catalog.Predicate) ([]domain.Product, error) {
	repo := s.catalogs.Catalog(d)
	if repo == nil {
		return nil, fmt.Errorf("catalog %s has no store", d)
	}
	products, err := repo.Find(ctx, pred)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Catalog = d
	}
	return products, nil
}

// mergeByID keeps the first record seen for each id, so primary records win over legacy ones.
func mergeByID(primary, legacy []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, len(primary)+len(legacy))
	seen := make(map[string]struct{}, len(primary)+len(legacy))
	for _, batch := range [][]domain.Product{primary, legacy} {
		for _, p := range batch {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
