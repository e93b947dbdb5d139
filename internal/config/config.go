// Package config provides centralized configuration for the service.
// Settings load from environment variables with defaults and are validated
// on startup so misconfiguration fails fast instead of surfacing mid-upload.
package config

import (
	"fmt"
	"time"

	"github.com/prepdeck/prepdeck/internal/diff"
	"github.com/prepdeck/prepdeck/internal/profile"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Profile  ProfileConfig
	Diff     DiffConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request body
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// Addr returns the host:port bind address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds version-store connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	// DB_URL is accepted as an alternate for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the connection pool ceiling
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the number of connections kept open
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a pooled connection
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime closes connections idle longer than this
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds version upload and profiling settings.
type IngestConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 50MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent caps parallel profiling runs
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long an upload waits for a profiling slot
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single ingest operation end to end
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"5m"`
}

// ProfileConfig exposes the profiling policy thresholds. The defaults are a
// behavioral contract: existing consumers compare profiles across versions,
// so override these only for a fresh deployment.
type ProfileConfig struct {
	// TypeConfidence is the fraction of non-null values that must match
	// a type rule for the column to take that type
	TypeConfidence float64 `env:"PROFILE_TYPE_CONFIDENCE" default:"0.8"`

	// CategoricalUniqueRatio is the unique/non-null ratio below which an
	// untyped column counts as categorical
	CategoricalUniqueRatio float64 `env:"PROFILE_CATEGORICAL_UNIQUE_RATIO" default:"0.2"`

	// IQRMultiplier scales the interquartile range when fencing outliers
	IQRMultiplier float64 `env:"PROFILE_IQR_MULTIPLIER" default:"1.5"`

	// HistogramBuckets is the numeric distribution bucket count
	HistogramBuckets int `env:"PROFILE_HISTOGRAM_BUCKETS" default:"5"`

	// MinCorrelationPairs is the minimum paired values before a
	// correlation is reported
	MinCorrelationPairs int `env:"PROFILE_MIN_CORRELATION_PAIRS" default:"6"`

	// MaxCorrelationColumns caps the correlation matrix width
	MaxCorrelationColumns int `env:"PROFILE_MAX_CORRELATION_COLUMNS" default:"50"`

	// CorrelationSampleRows strides rows beyond this during correlation
	CorrelationSampleRows int `env:"PROFILE_CORRELATION_SAMPLE_ROWS" default:"10000"`

	// PreviewRows bounds the raw-row preview kept on a profile
	PreviewRows int `env:"PROFILE_PREVIEW_ROWS" default:"100"`
}

// Policy converts the section into the profiling policy.
func (p ProfileConfig) Policy() profile.Policy {
	return profile.Policy{
		TypeConfidence:         p.TypeConfidence,
		CategoricalUniqueRatio: p.CategoricalUniqueRatio,
		IQRMultiplier:          p.IQRMultiplier,
		HistogramBuckets:       p.HistogramBuckets,
		MinCorrelationPairs:    p.MinCorrelationPairs,
		MaxCorrelationColumns:  p.MaxCorrelationColumns,
		CorrelationSampleRows:  p.CorrelationSampleRows,
		PreviewRows:            p.PreviewRows,
	}
}

// DiffConfig exposes the diff policy thresholds, defaults likewise a
// behavioral contract.
type DiffConfig struct {
	// NumericTolerance is the minimum |Δ| for numeric cells to count as
	// changed; 1 absorbs float round-trip noise from re-serialized files
	NumericTolerance float64 `env:"DIFF_NUMERIC_TOLERANCE" default:"1"`

	// ShiftSignificance is the category share movement, in percentage
	// points, worth surfacing
	ShiftSignificance float64 `env:"DIFF_SHIFT_SIGNIFICANCE" default:"5"`

	// TopCategoryShifts bounds reported shifts per column
	TopCategoryShifts int `env:"DIFF_TOP_CATEGORY_SHIFTS" default:"3"`

	// CorrelationSignificance is the minimum |Δr| worth reporting
	CorrelationSignificance float64 `env:"DIFF_CORRELATION_SIGNIFICANCE" default:"0.1"`

	// TopCorrelationDeltas bounds reported correlation movements
	TopCorrelationDeltas int `env:"DIFF_TOP_CORRELATION_DELTAS" default:"5"`

	// PageSize is how many aligned rows one cooperative step processes
	PageSize int `env:"DIFF_PAGE_SIZE" default:"500"`

	// MaxStatSamples strides cell statistics beyond this row count
	MaxStatSamples int `env:"DIFF_MAX_STAT_SAMPLES" default:"5000"`
}

// Policy converts the section into the diff policy.
func (d DiffConfig) Policy() diff.Policy {
	return diff.Policy{
		NumericTolerance:        d.NumericTolerance,
		ShiftSignificance:       d.ShiftSignificance,
		TopCategoryShifts:       d.TopCategoryShifts,
		CorrelationSignificance: d.CorrelationSignificance,
		TopCorrelationDeltas:    d.TopCorrelationDeltas,
		PageSize:                d.PageSize,
		MaxStatSamples:          d.MaxStatSamples,
	}
}

// RateLimitConfig holds per-IP request limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default per-IP budget
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// UploadLimit is the per-IP budget for version uploads
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarded-IP headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format selects the handler: text for development, json for
	// machine parsing in production
	Format string `env:"LOG_FORMAT" default:"text"`
}
