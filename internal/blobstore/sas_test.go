package blobstore

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

var testCreds = Credentials{
	AccountName:    "prodlogs",
	AccountKey:     base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
	EndpointSuffix: "core.windows.net",
	Protocol:       "https",
}

// Identical inputs at the same second-truncated expiry must yield
// byte-identical tokens; callers depend on this for testing.
func TestSASTokenDeterministic(t *testing.T) {
	expiry := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	first, err := sasTokenAt(testCreds, "applogs", "rl", expiry)
	if err != nil {
		t.Fatalf("sasTokenAt() error = %v, want nil", err)
	}
	second, err := sasTokenAt(testCreds, "applogs", "rl", expiry)
	if err != nil {
		t.Fatalf("sasTokenAt() error = %v, want nil", err)
	}
	if first != second {
		t.Errorf("tokens differ:\n  %s\n  %s", first, second)
	}

	// Sub-second differences must not leak into the token.
	third, err := sasTokenAt(testCreds, "applogs", "rl", expiry.Add(500*time.Millisecond))
	if err != nil {
		t.Fatalf("sasTokenAt() error = %v, want nil", err)
	}
	if first != third {
		t.Errorf("sub-second expiry difference changed the token")
	}
}

func TestSASTokenParameterOrder(t *testing.T) {
	expiry := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	token, err := sasTokenAt(testCreds, "applogs", "rl", expiry)
	if err != nil {
		t.Fatalf("sasTokenAt() error = %v, want nil", err)
	}

	if !strings.HasPrefix(token, "sv=2023-11-03&sr=c&sp=rl&se=") {
		t.Errorf("token = %q, want sv, sr, sp, se prefix order", token)
	}
	if !strings.HasSuffix(token, "&spr=https") {
		t.Errorf("token = %q, want spr=https suffix", token)
	}
	if !strings.Contains(token, "&sig=") {
		t.Errorf("token = %q, missing sig parameter", token)
	}

	// Expiry is ISO-8601 UTC with whole seconds, URL-escaped.
	if !strings.Contains(token, "se=2026-08-23T12%3A00%3A00Z") {
		t.Errorf("token = %q, want second-precision escaped expiry", token)
	}
}

func TestSASTokenSignatureChangesWithScope(t *testing.T) {
	expiry := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	base, err := sasTokenAt(testCreds, "applogs", "rl", expiry)
	if err != nil {
		t.Fatalf("sasTokenAt() error = %v, want nil", err)
	}

	tests := []struct {
		name      string
		container string
		perms     string
	}{
		{"different container", "dblogs", "rl"},
		{"different permissions", "applogs", "r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := sasTokenAt(testCreds, tt.container, tt.perms, expiry)
			if err != nil {
				t.Fatalf("sasTokenAt() error = %v, want nil", err)
			}
			if sigOf(t, other) == sigOf(t, base) {
				t.Errorf("signature unchanged for %s", tt.name)
			}
		})
	}
}

func TestGenerateSASTokenRejectsBadInput(t *testing.T) {
	if _, err := GenerateSASToken(testCreds, "applogs", "rl", -time.Hour); !isConfigError(err) {
		t.Errorf("negative expiry: error = %v, want *ConfigError", err)
	}

	noKey := Credentials{AccountName: "prodlogs"}
	if _, err := GenerateSASToken(noKey, "applogs", "rl", time.Hour); !isConfigError(err) {
		t.Errorf("missing key: error = %v, want *ConfigError", err)
	}

	badKey := Credentials{AccountName: "prodlogs", AccountKey: "not-base64!!!"}
	if _, err := GenerateSASToken(badKey, "applogs", "rl", time.Hour); !isConfigError(err) {
		t.Errorf("invalid base64 key: error = %v, want *ConfigError", err)
	}
}

func sigOf(t *testing.T, token string) string {
	t.Helper()
	for _, param := range strings.Split(token, "&") {
		if value, ok := strings.CutPrefix(param, "sig="); ok {
			return value
		}
	}
	t.Fatalf("token %q has no sig parameter", token)
	return ""
}

func isConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
