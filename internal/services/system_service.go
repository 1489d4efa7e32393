package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domain "github.com/brightcart/api/internal/domain"
	"github.com/brightcart/api/internal/repositories"
)

// BuildInfo captures runtime metadata exposed via health endpoints.
type BuildInfo struct {
	Version   string
	StartedAt time.Time
}

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Clock            func() time.Time
	Build            BuildInfo
	// CacheTTL reuses a collected report for this long. Zero pings the catalogs on every call.
	CacheTTL time.Duration
}

type systemService struct {
	healthRepo repositories.HealthRepository
	clock      func() time.Time
	build      BuildInfo
	cacheTTL   time.Duration

	probes   singleflight.Group
	mu       sync.Mutex
	cached   domain.SystemHealthReport
	cachedAt time.Time
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the service producing catalog readiness reports.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = clock()
	}

	return &systemService{
		healthRepo: deps.HealthRepository,
		clock:      func() time.Time { return clock().UTC() },
		build:      build,
		cacheTTL:   deps.CacheTTL,
	}, nil
}

// HealthReport pings every catalog. Concurrent callers share one round of pings.
func (s *systemService) HealthReport(ctx context.Context) (domain.SystemHealthReport, error) {
	if ctx == nil {
		return domain.SystemHealthReport{}, errors.New("system service: context is required")
	}
	if report, ok := s.fromCache(); ok {
		return report, nil
	}

	result, err, _ := s.probes.Do("collect", func() (any, error) {
		return s.healthRepo.Collect(ctx)
	})
	if err != nil {
		return domain.SystemHealthReport{}, err
	}

	report := s.enrich(result.(domain.SystemHealthReport))
	s.store(report)
	return report, nil
}

func (s *systemService) enrich(report domain.SystemHealthReport) domain.SystemHealthReport {
	now := s.clock()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = now
	}
	if strings.TrimSpace(report.Version) == "" {
		report.Version = s.build.Version
	}
	if report.Uptime <= 0 {
		report.Uptime = now.Sub(s.build.StartedAt)
	}
	if report.Checks == nil {
		report.Checks = map[string]domain.SystemHealthCheck{}
	}
	if strings.TrimSpace(report.Status) == "" {
		report.Status = deriveStatus(report.Checks)
	}
	return report
}

func (s *systemService) fromCache() (domain.SystemHealthReport, bool) {
	if s.cacheTTL <= 0 {
		return domain.SystemHealthReport{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedAt.IsZero() || s.clock().Sub(s.cachedAt) >= s.cacheTTL {
		return domain.SystemHealthReport{}, false
	}
	report := s.cached
	report.Uptime = s.clock().Sub(s.build.StartedAt)
	return report, true
}

func (s *systemService) store(report domain.SystemHealthReport) {
	if s.cacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	s.cached = report
	s.cachedAt = s.clock()
	s.mu.Unlock()
}

// deriveStatus is ok when every catalog answered, error when none did and degraded otherwise.
func deriveStatus(checks map[string]domain.SystemHealthCheck) string {
	if len(checks) == 0 {
		return domain.HealthStatusOK
	}
	failed := 0
	for _, check := range checks {
		if check.Status != domain.HealthStatusOK && check.Status != "" {
			failed++
		}
	}
	switch {
	case failed == 0:
		return domain.HealthStatusOK
	case failed == len(checks):
		return domain.HealthStatusError
	default:
		return domain.HealthStatusDegraded
	}
}
