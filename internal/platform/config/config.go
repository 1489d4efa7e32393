package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultRequestTimeout     = 25 * time.Second
	defaultLogLevel           = "info"
	defaultCatalogBackend     = BackendFirestore
	defaultResolveConcurrency = 8
	defaultCatalogPingTimeout = 1500 * time.Millisecond
	defaultHealthCacheTTL     = 2 * time.Second
	defaultPublicPerMinute    = 120
	defaultPublicBurst        = 30
	defaultAdminPerMinute     = 60
	defaultIdempotencyTTL     = 24 * time.Hour
)

// Catalog storage backends.
const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Firestore  FirestoreConfig
	Catalog    CatalogConfig
	RateLimits RateLimitConfig
	Events     EventsConfig
	Admin      AdminConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	LogLevel        string
	Version         string
	ProjectID       string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// CatalogConfig controls how the partitioned catalogs are stored, probed and presented.
type CatalogConfig struct {
	Backend            string
	ProbeOrder         []string
	TaxonomyFile       string
	ImageBaseOrigin    string
	CDNHosts           []string
	ResolveConcurrency int
	ParallelProbes     bool
	PingTimeout        time.Duration
	HealthCacheTTL     time.Duration
}

// RateLimitConfig controls request throttling per client address.
type RateLimitConfig struct {
	PublicPerMinute int
	PublicBurst     int
	AdminPerMinute  int
}

// EventsConfig configures catalog event publishing. An empty topic disables publishing.
type EventsConfig struct {
	ProjectID    string
	ProductTopic string
}

// AdminConfig configures the catalog write surface.
type AdminConfig struct {
	// IdempotencyTTL bounds how long a product creation can be replayed by Idempotency-Key.
	IdempotencyTTL time.Duration
	RequireIdemKey bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the process environment
// and explicit overrides, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "API_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			RequestTimeout:  durationWithDefault(lookup, "API_SERVER_REQUEST_TIMEOUT", defaultRequestTimeout),
			LogLevel:        stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
			Version:         stringWithDefault(lookup, "API_VERSION", "dev"),
			ProjectID:       stringWithDefault(lookup, "API_GCP_PROJECT_ID", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Catalog: CatalogConfig{
			Backend:            strings.ToLower(stringWithDefault(lookup, "API_CATALOG_BACKEND", defaultCatalogBackend)),
			ProbeOrder:         csvWithDefault(lookup, "API_CATALOG_PROBE_ORDER"),
			TaxonomyFile:       stringWithDefault(lookup, "API_CATALOG_TAXONOMY_FILE", ""),
			ImageBaseOrigin:    stringWithDefault(lookup, "API_CATALOG_IMAGE_BASE_ORIGIN", ""),
			CDNHosts:           csvWithDefault(lookup, "API_CATALOG_CDN_HOSTS"),
			ResolveConcurrency: intWithDefault(lookup, "API_CATALOG_RESOLVE_CONCURRENCY", defaultResolveConcurrency),
			ParallelProbes:     boolWithDefault(lookup, "API_CATALOG_PARALLEL_PROBES", false),
			PingTimeout:        durationWithDefault(lookup, "API_CATALOG_PING_TIMEOUT", defaultCatalogPingTimeout),
			HealthCacheTTL:     durationWithDefault(lookup, "API_CATALOG_HEALTH_CACHE_TTL", defaultHealthCacheTTL),
		},
		RateLimits: RateLimitConfig{
			PublicPerMinute: intWithDefault(lookup, "API_RATELIMIT_PUBLIC_PER_MIN", defaultPublicPerMinute),
			PublicBurst:     intWithDefault(lookup, "API_RATELIMIT_PUBLIC_BURST", defaultPublicBurst),
			AdminPerMinute:  intWithDefault(lookup, "API_RATELIMIT_ADMIN_PER_MIN", defaultAdminPerMinute),
		},
		Events: EventsConfig{
			ProjectID:    stringWithDefault(lookup, "API_EVENTS_PROJECT_ID", ""),
			ProductTopic: stringWithDefault(lookup, "API_EVENTS_PRODUCT_TOPIC", ""),
		},
		Admin: AdminConfig{
			IdempotencyTTL: durationWithDefault(lookup, "API_ADMIN_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			RequireIdemKey: boolWithDefault(lookup, "API_ADMIN_REQUIRE_IDEMPOTENCY_KEY", false),
		},
	}

	// Firestore and Pub/Sub default to the shared GCP project.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Server.ProjectID
	}
	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Server.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Catalog.Backend {
	case BackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	case BackendMemory:
	default:
		missing = append(missing, "Catalog.Backend")
	}
	if cfg.Catalog.ResolveConcurrency <= 0 {
		missing = append(missing, "Catalog.ResolveConcurrency")
	}
	if cfg.Catalog.PingTimeout <= 0 {
		missing = append(missing, "Catalog.PingTimeout")
	}
	if cfg.RateLimits.PublicPerMinute < 0 {
		missing = append(missing, "RateLimits.PublicPerMinute")
	}
	if cfg.RateLimits.AdminPerMinute < 0 {
		missing = append(missing, "RateLimits.AdminPerMinute")
	}
	if cfg.Admin.IdempotencyTTL <= 0 {
		missing = append(missing, "Admin.IdempotencyTTL")
	}
	if cfg.Events.ProductTopic != "" && cfg.Events.ProjectID == "" {
		missing = append(missing, "Events.ProjectID")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
