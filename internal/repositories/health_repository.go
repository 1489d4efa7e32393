package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/brightcart/api/internal/domain"
)

const defaultCatalogPingTimeout = 1500 * time.Millisecond

// CatalogHealthOption customises the catalog health repository.
type CatalogHealthOption func(*catalogHealthRepository)

// WithPingTimeout overrides the per-catalog ping timeout.
func WithPingTimeout(timeout time.Duration) CatalogHealthOption {
	return func(repo *catalogHealthRepository) {
		if timeout > 0 {
			repo.timeout = timeout
		}
	}
}

// WithHealthClock injects a custom clock primarily for tests.
func WithHealthClock(clock func() time.Time) CatalogHealthOption {
	return func(repo *catalogHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

type catalogHealthRepository struct {
	catalogs map[domain.CatalogDomain]CatalogRepository
	timeout  time.Duration
	now      func() time.Time
}

var _ HealthRepository = (*catalogHealthRepository)(nil)

// NewCatalogHealthRepository pings each catalog concurrently when collecting a report.
// The report is degraded when some catalogs fail and error when all of them do.
func NewCatalogHealthRepository(catalogs map[domain.CatalogDomain]CatalogRepository, opts ...CatalogHealthOption) (HealthRepository, error) {
	if len(catalogs) == 0 {
		return nil, errors.New("health repository: at least one catalog is required")
	}
	repo := &catalogHealthRepository{
		catalogs: make(map[domain.CatalogDomain]CatalogRepository, len(catalogs)),
		timeout:  defaultCatalogPingTimeout,
		now:      time.Now,
	}
	for d, c := range catalogs {
		if c == nil {
			return nil, errors.New("health repository: nil catalog for " + d.String())
		}
		repo.catalogs[d] = c
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

func (r *catalogHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if ctx == nil {
		return domain.SystemHealthReport{}, errors.New("health repository: context is required")
	}

	results := make(map[string]domain.SystemHealthCheck, len(r.catalogs))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for d, c := range r.catalogs {
		wg.Add(1)
		go func(name string, c CatalogRepository) {
			defer wg.Done()
			check := r.ping(ctx, c)
			mu.Lock()
			results[name] = check
			mu.Unlock()
		}(d.String(), c)
	}
	wg.Wait()

	failed := 0
	status := domain.HealthStatusOK
	for _, check := range results {
		if check.Status == domain.HealthStatusOK {
			continue
		}
		failed++
		if check.Status == domain.HealthStatusError {
			status = domain.HealthStatusError
		} else if status == domain.HealthStatusOK {
			status = domain.HealthStatusDegraded
		}
	}
	if failed == len(results) {
		status = domain.HealthStatusError
	}

	return domain.SystemHealthReport{
		Status:      status,
		Checks:      results,
		GeneratedAt: r.now(),
	}, nil
}

func (r *catalogHealthRepository) ping(ctx context.Context, c CatalogRepository) domain.SystemHealthCheck {
	pingCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	err := c.Ping(pingCtx)
	end := r.now()

	check := domain.SystemHealthCheck{
		Status:    domain.HealthStatusOK,
		Detail:    "ok",
		Latency:   end.Sub(start),
		CheckedAt: end,
	}
	switch {
	case err == nil && pingCtx.Err() == nil:
	case errors.Is(err, context.DeadlineExceeded) || (err == nil && errors.Is(pingCtx.Err(), context.DeadlineExceeded)):
		check.Status = domain.HealthStatusError
		check.Detail = "timeout"
		check.Error = context.DeadlineExceeded.Error()
	case errors.Is(err, context.Canceled):
		check.Status = domain.HealthStatusError
		check.Detail = "cancelled"
		check.Error = err.Error()
	default:
		check.Status = domain.HealthStatusDegraded
		if err == nil {
			err = pingCtx.Err()
		}
		check.Detail = err.Error()
		check.Error = err.Error()
	}
	return check
}
