// Package retry provides error classification and backoff for the glue
// layers wrapping storage and lifecycle API calls. The storage core
// itself never retries; policy lives here, outside it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/paasops/paas-mcp/internal/blobstore"
)

// ErrorType represents the classes of errors driving retry strategy.
type ErrorType int

const (
	// ErrorTypeSuccess indicates the operation succeeded.
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential indicates a rejected signature or expired token.
	ErrorTypeCredential
	// ErrorTypeNetwork indicates connection-level trouble.
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors worth retrying (5xx, 429).
	ErrorTypeRetryable
	// ErrorTypeFatal indicates client errors that retrying cannot fix.
	ErrorTypeFatal
)

// Config holds retry parameters for Do.
type Config struct {
	// MaxRetries is the maximum number of attempts.
	MaxRetries int
	// InitialDelay is the base delay for exponential backoff.
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration
	// OnRetry is invoked before each retry attempt, if set.
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// Classify determines the error type for retry strategy. Typed storage
// errors are inspected first; everything else falls back to message
// matching the way transient cloud failures usually surface.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}

	var statusErr *blobstore.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusForbidden ||
			statusErr.StatusCode == http.StatusUnauthorized:
			return ErrorTypeCredential
		case statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= 500:
			return ErrorTypeRetryable
		default:
			return ErrorTypeFatal
		}
	}

	var cfgErr *blobstore.ConfigError
	var parseErr *blobstore.ParseError
	if errors.As(err, &cfgErr) || errors.As(err, &parseErr) {
		return ErrorTypeFatal
	}

	var streamErr *blobstore.StreamError
	if errors.As(err, &streamErr) {
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "expired") ||
		strings.Contains(errStr, "authentication failed") ||
		strings.Contains(errStr, "authenticationfailed") ||
		strings.Contains(errStr, "signature not valid") ||
		strings.Contains(errStr, "unauthorized") {
		return ErrorTypeCredential
	}

	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "tls handshake timeout") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	if strings.Contains(errStr, "throttl") ||
		strings.Contains(errStr, "serverbusy") ||
		strings.Contains(errStr, "server busy") ||
		strings.Contains(errStr, "serviceunavailable") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "internalerror") {
		return ErrorTypeRetryable
	}

	return ErrorTypeFatal
}

// Backoff returns the exponential backoff duration for attempt, with
// full jitter to spread synchronized retries apart.
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func Backoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay {
		base = maxDelay
	}
	return time.Duration(rand.Int63n(int64(base)))
}

// Do runs operation with classification-driven retries: credential
// errors pause briefly and retry (the caller's credential source is
// expected to mint fresh tokens per attempt), network and server errors
// back off exponentially, fatal errors return immediately.
func Do(ctx context.Context, cfg Config, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		errType := Classify(err)
		switch errType {
		case ErrorTypeFatal:
			return err

		case ErrorTypeCredential:
			if attempt < cfg.MaxRetries-1 {
				if cfg.OnRetry != nil {
					cfg.OnRetry(attempt+1, err, errType)
				}
				if err := sleep(ctx, time.Second); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("credential error after %d attempts: %w", cfg.MaxRetries, err)

		case ErrorTypeNetwork, ErrorTypeRetryable:
			if attempt < cfg.MaxRetries-1 {
				if cfg.OnRetry != nil {
					cfg.OnRetry(attempt+1, err, errType)
				}
				if err := sleep(ctx, Backoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)); err != nil {
					return err
				}
				continue
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Name returns a human-readable name for an ErrorType.
func (t ErrorType) Name() string {
	switch t {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeCredential:
		return "credential"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}
