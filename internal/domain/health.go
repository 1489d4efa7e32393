package domain

import "time"

const (
	// HealthStatusOK indicates all catalogs answered.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one catalog failed while the others answered.
	HealthStatusDegraded = "degraded"
	// HealthStatusError marks a failed probe, or a report where no catalog answered.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for the readiness endpoint.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	Uptime      time.Duration
	GeneratedAt time.Time
}
