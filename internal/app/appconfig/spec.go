package appconfig

import (
	"time"

	"github.com/hera-erp/tilestats/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9010"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// LogFile is the path of the rotated log file.
	LogFile string `split_words:"true" default:"logs/app.log"`

	LogFileMaxSizeMB  int `split_words:"true" default:"100"`
	LogFileMaxBackups int `split_words:"true" default:"5"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic. See internal/server/httpserver/http.go for the
	// actual implementation details.
	DevMode bool `split_words:"true"`

	// TracingEnabled to indicate whether to enable OpenTelemetry tracing.
	TracingEnabled bool `split_words:"true"`

	// TracingExporters to indicate which exporters to use for tracing.
	// Valid values are: otlp, stdout (for debug).
	TracingExporters []string `split_words:"true" default:"otlp"`

	// TracingSampleRate to indicate the sampling rate for tracing.
	// Valid values are: 0.0 (disabled), 1.0 (all traces), or a value between 0.0 and 1.0 (sampling rate).
	TracingSampleRate float64 `split_words:"true" default:"1.0"`

	// infrastructure components connection instructions

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"20"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"4"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// InfraConnectAttempts is how many times Postgres and Redis are dialed on startup before giving up.
	InfraConnectAttempts uint `split_words:"true" default:"5"`

	// NatsURL is the URL of the NATS server. See https://pkg.go.dev/github.com/nats-io/nats.go#Connect
	// for more information on how to construct a NATS URL.
	NatsURL string `required:"true" split_words:"true" default:"nats://127.0.0.1:4222"`

	// RedisURL is the URL of the Redis server. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	// for more information on how to construct a Redis URL.
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/1"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// DatadogProfilerEnabled to indicate whether to enable Datadog profiler.
	DatadogProfilerEnabled bool `split_words:"true" default:"false"`

	// DatadogProfilerAgentAddress is the address of the Datadog profiler agent.
	DatadogProfilerAgentAddress string `split_words:"true" default:"localhost:8126"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// StatQueryTimeout bounds every single stat query. A query exceeding it fails with QUERY_TIMEOUT
	// without affecting the other stats of the tile.
	StatQueryTimeout time.Duration `required:"true" split_words:"true" default:"10s"`

	// StatConcurrency limits how many stat queries of one tile run at once. 0 means unbounded.
	StatConcurrency int `split_words:"true" default:"0"`

	// StatsCacheTTL is how long a fully successful tile result is served from redis.
	// Zero disables the result cache.
	StatsCacheTTL time.Duration `split_words:"true" default:"5m"`

	// TileConfigCacheTTL is how long tile configurations are kept in process memory.
	// Updates published on NATS evict entries earlier.
	TileConfigCacheTTL time.Duration `split_words:"true" default:"1m"`

	// StrictPlaceholders makes unknown {{placeholders}} fail the stat with UNRESOLVED_PLACEHOLDER
	// instead of passing the literal token through.
	StrictPlaceholders bool `split_words:"true"`

	// RefreshRateLimit is the number of forced refreshes a single IP may issue per RefreshRateWindow.
	RefreshRateLimit int `split_words:"true" default:"30"`

	RefreshRateWindow time.Duration `split_words:"true" default:"1m"`

	// IdempotencyKeyLifetime is how long a refresh response is replayed for a repeated idempotency key.
	IdempotencyKeyLifetime time.Duration `split_words:"true" default:"10m"`

	// WorkerEnabled is a flag to indicate whether to enable the cache warm worker.
	WorkerEnabled bool `split_words:"true"`

	// WorkerInterval describes the interval in-between different warm batches
	WorkerInterval time.Duration `required:"true" split_words:"true" default:"2m"`

	// WorkerSeparation describes the separation time in-between warming two tiles
	WorkerSeparation time.Duration `required:"true" split_words:"true" default:"200ms"`

	// WorkerTimeout describes the timeout for a single batch to run
	WorkerTimeout time.Duration `required:"true" split_words:"true" default:"5m"`

	// WorkerRecentWindow is how recently a tile must have been read to be warmed.
	WorkerRecentWindow time.Duration `split_words:"true" default:"30m"`

	// WorkerBatchSize caps the number of tiles warmed per batch.
	WorkerBatchSize int64 `split_words:"true" default:"100"`

	// AdminKey is the key used to authenticate the admin API. Leaving it empty disables the admin API.
	AdminKey string `split_words:"true"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
