package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
)

const (
	resolverEventProbeFailed = "catalog.resolve.probe_failed"
	resolverEventNotFound    = "catalog.resolve.not_found"

	defaultResolveConcurrency = 8
)

var tracer trace.Tracer = otel.Tracer("github.com/brightcart/api/internal/services")

// IdentityResolverDeps bundles collaborators required by the identity resolver.
type IdentityResolverDeps struct {
	Registry  *catalog.Registry
	Catalogs  repositories.Registry
	Presenter *ProductPresenter
	Metrics   CatalogMetrics
	Logger    LogFunc
	// ParallelProbes issues every catalog lookup at once and keeps the highest-priority hit.
	ParallelProbes bool
	// Concurrency bounds the ids ResolveMany resolves at once.
	Concurrency int
}

type identityResolver struct {
	registry    *catalog.Registry
	catalogs    repositories.Registry
	presenter   *ProductPresenter
	metrics     CatalogMetrics
	logger      LogFunc
	parallel    bool
	concurrency int
}

var _ IdentityResolver = (*identityResolver)(nil)

// NewIdentityResolver constructs the cross-catalog id resolver.
func NewIdentityResolver(deps IdentityResolverDeps) (IdentityResolver, error) {
	if deps.Registry == nil {
		return nil, errors.New("identity resolver: catalog registry is required")
	}
	if deps.Catalogs == nil {
		return nil, errors.New("identity resolver: repository registry is required")
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
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultResolveConcurrency
	}
	return &identityResolver{
		registry:    deps.Registry,
		catalogs:    deps.Catalogs,
		presenter:   presenter,
		metrics:     metrics,
		logger:      logger,
		parallel:    deps.ParallelProbes,
		concurrency: concurrency,
	}, nil
}

type probeOutcome struct {
	product domain.Product
	found   bool
	probed  bool
	err     error
}

func (r *identityResolver) ResolveByID(ctx context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, ErrProductNotFound
	}

	ctx, span := tracer.Start(ctx, "catalog.resolve", trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	order := r.registry.ProbeOrder()
	var outcomes []probeOutcome
	if r.parallel {
		outcomes = r.probeParallel(ctx, order, id)
	} else {
		outcomes = r.probeSequential(ctx, order, id)
	}

	probed, failed := 0, 0
	var failures []error
	for i, outcome := range outcomes {
		if !outcome.probed {
			continue
		}
		probed++
		if outcome.found {
			span.SetAttributes(attribute.String("catalog.domain", order[i].Domain.String()))
			return r.presenter.Present(outcome.product), nil
		}
		if outcome.err != nil {
			failed++
			failures = append(failures, outcome.err)
		}
	}

	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if probed > 0 && failed == probed {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, errors.Join(failures...))
	}
	r.metrics.ProductNotFound(ctx)
	r.logger(ctx, resolverEventNotFound, map[string]any{
		"productId": id,
		"probed":    probed,
		"failed":    failed,
	})
	return domain.Product{}, ErrProductNotFound
}

// probeSequential stops at the first catalog that holds id.
func (r *identityResolver) probeSequential(ctx context.Context, order []catalog.Descriptor, id string) []probeOutcome {
	outcomes := make([]probeOutcome, len(order))
	for i, desc := range order {
		if ctx.Err() != nil {
			break
		}
		outcomes[i] = r.probe(ctx, desc.Domain, id)
		if outcomes[i].found {
			break
		}
	}
	return outcomes
}

func (r *identityResolver) probeParallel(ctx context.Context, order []catalog.Descriptor, id string) []probeOutcome {
	outcomes := make([]probeOutcome, len(order))
	var wg sync.WaitGroup
	for i, desc := range order {
		wg.Add(1)
		go func(i int, d domain.CatalogDomain) {
			defer wg.Done()
			outcomes[i] = r.probe(ctx, d, id)
		}(i, desc.Domain)
	}
	wg.Wait()
	return outcomes
}

func (r *identityResolver) probe(ctx context.Context, d domain.CatalogDomain, id string) probeOutcome {
	repo := r.catalogs.Catalog(d)
	if repo == nil {
		return probeOutcome{}
	}
	product, err := repo.FindByID(ctx, id)
	switch {
	case err == nil:
		product.Catalog = d
		return probeOutcome{product: product, found: true, probed: true}
	case isRepositoryNotFound(err):
		return probeOutcome{probed: true}
	default:
		r.metrics.ProbeFailed(ctx, d, "resolve")
		r.logger(ctx, resolverEventProbeFailed, map[string]any{
			"catalog":   d.String(),
			"productId": id,
			"error":     err.Error(),
		})
		return probeOutcome{probed: true, err: err}
	}
}

func (r *identityResolver) ResolveMany(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	ids := distinctIDs(productIDs)
	resolved := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			product, err := r.ResolveByID(gctx, id)
			switch {
			case err == nil:
				mu.Lock()
				resolved[id] = product
				mu.Unlock()
				return nil
			case errors.Is(err, ErrProductNotFound):
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func distinctIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
