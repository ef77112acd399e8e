package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paasops/paas-mcp/internal/blobstore"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeSuccess},
		{"403 status", &blobstore.StatusError{Operation: "list", StatusCode: 403}, ErrorTypeCredential},
		{"503 status", &blobstore.StatusError{Operation: "list", StatusCode: 503}, ErrorTypeRetryable},
		{"429 status", &blobstore.StatusError{Operation: "download", StatusCode: 429}, ErrorTypeRetryable},
		{"404 status", &blobstore.StatusError{Operation: "download", StatusCode: 404}, ErrorTypeFatal},
		{"stream error", &blobstore.StreamError{Op: "read", Err: errors.New("connection reset by peer")}, ErrorTypeNetwork},
		{"config error", &blobstore.ConfigError{Reason: "missing AccountName"}, ErrorTypeFatal},
		{"message: timeout", errors.New("dial tcp: i/o timeout"), ErrorTypeNetwork},
		{"message: throttled", errors.New("request throttled by service"), ErrorTypeRetryable},
		{"message: expired token", errors.New("SAS token expired"), ErrorTypeCredential},
		{"unknown", errors.New("something odd"), ErrorTypeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got.Name(), tt.want.Name())
			}
		})
	}
}

func TestDoStopsOnFatal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(), func() error {
		calls++
		return &blobstore.StatusError{Operation: "download", StatusCode: 404}
	})
	if err == nil {
		t.Fatal("Do() error = nil, want fatal error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on fatal)", calls)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(), func() error {
		calls++
		if calls < 3 {
			return &blobstore.StatusError{Operation: "list", StatusCode: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil after recovery", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testConfig(), func() error {
		calls++
		return &blobstore.StatusError{Operation: "list", StatusCode: 500}
	})
	if err == nil {
		t.Fatal("Do() error = nil, want exhaustion error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxRetries attempts", calls)
	}
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, testConfig(), func() error {
		t.Error("operation ran with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := Backoff(attempt, 10*time.Millisecond, 100*time.Millisecond)
		if d < 0 || d > 100*time.Millisecond {
			t.Errorf("Backoff(%d) = %v, want within [0, 100ms]", attempt, d)
		}
	}
	if d := Backoff(0, time.Second, time.Minute); d != 0 {
		t.Errorf("Backoff(0) = %v, want 0", d)
	}
}

func testConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}
