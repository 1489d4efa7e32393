package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/brightcart/api/internal/catalog"
	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/platform/config"
	pfirestore "github.com/brightcart/api/internal/platform/firestore"
	"github.com/brightcart/api/internal/platform/idempotency"
	"github.com/brightcart/api/internal/platform/jobs"
	"github.com/brightcart/api/internal/platform/observability"
	"github.com/brightcart/api/internal/repositories"
	firestorerepo "github.com/brightcart/api/internal/repositories/firestore"
	"github.com/brightcart/api/internal/repositories/memory"
	"github.com/brightcart/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Resolver     services.IdentityResolver
	Search       services.CatalogSearch
	CartLines    services.CartLineService
	ProductAdmin services.ProductAdminService
	System       services.SystemService
}

// Container wires the catalog registry, repositories, services and event publishing for runtime use.
type Container struct {
	Config       config.Config
	Catalogs     *catalog.Registry
	Taxonomy     *catalog.Taxonomy
	Repositories repositories.Registry
	Idempotency  idempotency.Store
	Services     Services

	closers []func(context.Context) error
}

// Option customises container construction.
type Option func(*options)

type options struct {
	repositories repositories.Registry
	events       services.ProductEventPublisher
	idempotency  idempotency.Store
	logger       *zap.Logger
	clock        func() time.Time
	build        services.BuildInfo
}

// WithRepositories supplies a prebuilt repository registry instead of the configured backend.
func WithRepositories(reg repositories.Registry) Option {
	return func(o *options) {
		o.repositories = reg
	}
}

// WithEventPublisher supplies the product event publisher instead of the configured Pub/Sub topic.
func WithEventPublisher(p services.ProductEventPublisher) Option {
	return func(o *options) {
		o.events = p
	}
}

// WithIdempotencyStore supplies the store backing Idempotency-Key replays on admin writes.
func WithIdempotencyStore(store idempotency.Store) Option {
	return func(o *options) {
		o.idempotency = store
	}
}

// WithLogger sets the logger used while wiring dependencies.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the clock shared by the services.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithBuildInfo sets the version metadata reported by the system service.
func WithBuildInfo(info services.BuildInfo) Option {
	return func(o *options) {
		o.build = info
	}
}

// NewContainer constructs the runtime dependencies. Production wiring selects the catalog
// backend from configuration while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.build.Version == "" {
		o.build.Version = cfg.Server.Version
	}

	c := &Container{Config: cfg}

	catalogs, err := buildCatalogRegistry(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	c.Catalogs = catalogs

	taxonomy, err := loadTaxonomy(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	c.Taxonomy = taxonomy
	o.logger.Info("catalog taxonomy loaded",
		zap.String("version", taxonomy.Version()),
		zap.String("source", taxonomySource(cfg.Catalog)),
	)

	var provider *pfirestore.Provider
	reg := o.repositories
	if reg == nil {
		reg, provider, err = buildRepositories(cfg, catalogs)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, reg.Close)
	}
	c.Repositories = reg

	store := o.idempotency
	if store == nil {
		store, err = buildIdempotencyStore(provider)
		if err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
	}
	c.Idempotency = store

	events := o.events
	if events == nil && strings.TrimSpace(cfg.Events.ProductTopic) != "" {
		publisher, closeFn, err := buildProductPublisher(ctx, cfg.Events)
		if err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		c.closers = append(c.closers, closeFn)
		events = publisher
	}

	svc, err := buildServices(cfg, catalogs, taxonomy, reg, events, o)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Services = svc
	return c, nil
}

// Close releases resources such as repository clients and event publishers, newest first.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func buildCatalogRegistry(cfg config.CatalogConfig) (*catalog.Registry, error) {
	defaults := catalog.DefaultRegistry()
	order := make([]domain.CatalogDomain, 0, len(cfg.ProbeOrder))
	for _, raw := range cfg.ProbeOrder {
		d, ok := defaults.ParseDomain(raw)
		if !ok {
			return nil, fmt.Errorf("catalog probe order: unknown catalog %q", raw)
		}
		order = append(order, d)
	}
	reg, err := catalog.NewRegistry(catalog.DefaultDescriptors(), order)
	if err != nil {
		return nil, fmt.Errorf("build catalog registry: %w", err)
	}
	return reg, nil
}

func loadTaxonomy(cfg config.CatalogConfig) (*catalog.Taxonomy, error) {
	if path := strings.TrimSpace(cfg.TaxonomyFile); path != "" {
		taxonomy, err := catalog.LoadTaxonomyFile(path)
		if err != nil {
			return nil, fmt.Errorf("load catalog taxonomy: %w", err)
		}
		return taxonomy, nil
	}
	taxonomy, err := catalog.DefaultTaxonomy()
	if err != nil {
		return nil, fmt.Errorf("load catalog taxonomy: %w", err)
	}
	return taxonomy, nil
}

func taxonomySource(cfg config.CatalogConfig) string {
	if path := strings.TrimSpace(cfg.TaxonomyFile); path != "" {
		return path
	}
	return "embedded"
}

// buildRepositories returns the Firestore provider it opened, if any, so other stores can share the client.
func buildRepositories(cfg config.Config, catalogs *catalog.Registry) (repositories.Registry, *pfirestore.Provider, error) {
	healthOpts := []repositories.CatalogHealthOption{repositories.WithPingTimeout(cfg.Catalog.PingTimeout)}
	switch cfg.Catalog.Backend {
	case config.BackendMemory:
		reg, err := memory.NewRegistry(catalogs, healthOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("build memory catalogs: %w", err)
		}
		return reg, nil, nil
	case config.BackendFirestore, "":
		provider := pfirestore.NewProvider(cfg.Firestore)
		reg, err := firestorerepo.NewRegistry(provider, catalogs, healthOpts...)
		if err != nil {
			_ = provider.Close(context.Background())
			return nil, nil, fmt.Errorf("build firestore catalogs: %w", err)
		}
		return reg, provider, nil
	default:
		return nil, nil, fmt.Errorf("unsupported catalog backend %q", cfg.Catalog.Backend)
	}
}

func buildIdempotencyStore(provider *pfirestore.Provider) (idempotency.Store, error) {
	if provider == nil {
		return idempotency.NewMemoryStore(), nil
	}
	store, err := idempotency.NewFirestoreStore(provider)
	if err != nil {
		return nil, fmt.Errorf("build idempotency store: %w", err)
	}
	return store, nil
}

func buildProductPublisher(ctx context.Context, cfg config.EventsConfig) (services.ProductEventPublisher, func(context.Context) error, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("build pubsub client: %w", err)
	}
	publisher, err := jobs.NewPubSubProductPublisher(client.Topic(cfg.ProductTopic))
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("build product publisher: %w", err)
	}
	closeFn := func(context.Context) error {
		publisher.Stop()
		return client.Close()
	}
	return publisher, closeFn, nil
}

func buildServices(cfg config.Config, catalogs *catalog.Registry, taxonomy *catalog.Taxonomy, reg repositories.Registry, events services.ProductEventPublisher, o options) (Services, error) {
	logger := services.ContextLogger()
	metrics := observability.NewCatalogMetrics(nil, o.logger)
	presenter := services.NewProductPresenter(services.NewImageURLNormalizer(cfg.Catalog.ImageBaseOrigin, cfg.Catalog.CDNHosts))

	var svc Services

	resolver, err := services.NewIdentityResolver(services.IdentityResolverDeps{
		Registry:       catalogs,
		Catalogs:       reg,
		Presenter:      presenter,
		Metrics:        metrics,
		Logger:         logger,
		ParallelProbes: cfg.Catalog.ParallelProbes,
		Concurrency:    cfg.Catalog.ResolveConcurrency,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build identity resolver: %w", err)
	}
	svc.Resolver = resolver

	search, err := services.NewFederatedSearch(services.FederatedSearchDeps{
		Registry:  catalogs,
		Taxonomy:  taxonomy,
		Catalogs:  reg,
		Presenter: presenter,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build federated search: %w", err)
	}
	svc.Search = search

	cartLines, err := services.NewCartLineService(services.CartLineServiceDeps{
		Resolver: resolver,
		Logger:   logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart line service: %w", err)
	}
	svc.CartLines = cartLines

	admin, err := services.NewProductAdminService(services.ProductAdminServiceDeps{
		Registry:  catalogs,
		Catalogs:  reg,
		Presenter: presenter,
		Events:    events,
		Clock:     o.clock,
		Logger:    logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build product admin service: %w", err)
	}
	svc.ProductAdmin = admin

	if healthRepo := reg.Health(); healthRepo != nil {
		system, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            o.clock,
			Build:            o.build,
			CacheTTL:         cfg.Catalog.HealthCacheTTL,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = system
	}

	return svc, nil
}
