package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	domain "github.com/brightcart/api/internal/domain"
)

const metricNamespace = "github.com/brightcart/api/catalog"

// CatalogMetrics counts catalog probe failures and unresolved product ids.
type CatalogMetrics struct {
	probeFailures metric.Int64Counter
	notFound      metric.Int64Counter
}

// NewCatalogMetrics registers the catalog counters on meter, or on the global provider when meter is nil.
// Registration failures are logged and leave the affected counter disabled.
func NewCatalogMetrics(meter metric.Meter, logger *zap.Logger) *CatalogMetrics {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &CatalogMetrics{}
	probeFailures, err := meter.Int64Counter(
		"catalog.probe.failures",
		metric.WithDescription("Catalog lookups that failed and were skipped"),
	)
	if err != nil {
		logger.Warn("catalog: unable to register probe failure metric", zap.Error(err))
	} else {
		m.probeFailures = probeFailures
	}

	notFound, err := meter.Int64Counter(
		"catalog.resolve.not_found",
		metric.WithDescription("Product ids no catalog could resolve"),
	)
	if err != nil {
		logger.Warn("catalog: unable to register not found metric", zap.Error(err))
	} else {
		m.notFound = notFound
	}
	return m
}

// ProbeFailed records a skipped catalog lookup.
func (m *CatalogMetrics) ProbeFailed(ctx context.Context, catalog domain.CatalogDomain, operation string) {
	if m == nil || m.probeFailures == nil {
		return
	}
	m.probeFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("catalog", catalog.String()),
		attribute.String("operation", operation),
	))
}

// ProductNotFound records an id that resolved nowhere.
func (m *CatalogMetrics) ProductNotFound(ctx context.Context) {
	if m == nil || m.notFound == nil {
		return
	}
	m.notFound.Add(ctx, 1)
}
