package constants

import (
	"time"
)

// Azure Blob Storage REST API
const (
	// StorageAPIVersion - pinned x-ms-version / sv value for all storage calls.
	// Bump deliberately: the SAS string-to-sign layout is version-dependent.
	StorageAPIVersion = "2023-11-03"

	// DefaultEndpointSuffix - storage endpoint suffix used when the
	// connection string does not carry one.
	DefaultEndpointSuffix = "core.windows.net"

	// MaxListPages - hard cap on list-blobs pagination rounds.
	// The service returns up to 5000 names per page, so 20 pages bounds
	// enumeration at ~100k blobs. Hitting the cap returns the partial
	// list with a warning instead of hanging on a runaway marker.
	MaxListPages = 20

	// DefaultSASExpiry - lifetime of generated SAS tokens.
	DefaultSASExpiry = 24 * time.Hour

	// DefaultSASPermissions - read + list, the only operations this
	// server performs against storage.
	DefaultSASPermissions = "rl"
)

// HTTP client tuning
const (
	// HTTPRequestTimeout - per-request ceiling for API calls.
	// Blob streams clear this and rely on context instead.
	HTTPRequestTimeout = 60 * time.Second

	// HTTPIdleConnTimeout - how long idle pooled connections are kept.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - extended for slow networks.
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPMaxIdleConns / HTTPMaxConnsPerHost - pool sizing for
	// concurrent blob downloads against a single storage endpoint.
	HTTPMaxIdleConns    = 128
	HTTPMaxConnsPerHost = 32
)

// Retry configuration (glue layers only; the storage core never retries)
const (
	// MaxRetries - maximum attempts for transient errors.
	MaxRetries = 5

	// RetryInitialDelay - base delay for exponential backoff.
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - backoff cap.
	RetryMaxDelay = 15 * time.Second
)

// Lifecycle API rate-limit scopes
const (
	// ReadScopeRatePerSec / ReadScopeBurst - read endpoints
	// (environments, applications, status polls). 80% of the service's
	// documented 18000/hour limit for safety margin.
	ReadScopeRatePerSec = 4.0
	ReadScopeBurst      = 60

	// WriteScopeRatePerSec / WriteScopeBurst - mutating endpoints
	// (deployments, database exports). Deliberately conservative.
	WriteScopeRatePerSec = 0.5
	WriteScopeBurst      = 10
)

// Cache TTLs for read-only lifecycle API results
const (
	// EnvironmentCacheTTL - environment topology changes rarely.
	EnvironmentCacheTTL = 5 * time.Minute

	// ApplicationCacheTTL - application lists are near-static.
	ApplicationCacheTTL = 5 * time.Minute

	// CacheSweepInterval - how often expired entries are evicted.
	CacheSweepInterval = 1 * time.Minute
)
