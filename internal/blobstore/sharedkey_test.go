package blobstore

import (
	"strings"
	"testing"
)

func TestAuthorizationHeaderFormat(t *testing.T) {
	headers := map[string]string{
		"x-ms-date":    "Sun, 23 Aug 2026 12:00:00 GMT",
		"x-ms-version": "2023-11-03",
	}

	value, err := AuthorizationHeader("GET", testCreds, headers)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}
	if !strings.HasPrefix(value, "SharedKey prodlogs:") {
		t.Errorf("header = %q, want SharedKey {account}:{sig} form", value)
	}

	// Deterministic for identical inputs.
	again, err := AuthorizationHeader("GET", testCreds, headers)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}
	if value != again {
		t.Errorf("signature not deterministic:\n  %s\n  %s", value, again)
	}
}

func TestAuthorizationHeaderSensitiveToInputs(t *testing.T) {
	base := map[string]string{
		"x-ms-date":    "Sun, 23 Aug 2026 12:00:00 GMT",
		"x-ms-version": "2023-11-03",
	}
	baseValue, err := AuthorizationHeader("GET", testCreds, base)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}

	changedDate := map[string]string{
		"x-ms-date":    "Sun, 23 Aug 2026 12:00:01 GMT",
		"x-ms-version": "2023-11-03",
	}
	changedValue, err := AuthorizationHeader("GET", testCreds, changedDate)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}
	if baseValue == changedValue {
		t.Error("changing x-ms-date did not change the signature")
	}

	postValue, err := AuthorizationHeader("POST", testCreds, base)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}
	if baseValue == postValue {
		t.Error("changing the HTTP verb did not change the signature")
	}
}

func TestAuthorizationHeaderRequiresKey(t *testing.T) {
	noKey := Credentials{AccountName: "prodlogs"}
	if _, err := AuthorizationHeader("GET", noKey, nil); !isConfigError(err) {
		t.Errorf("missing key: error = %v, want *ConfigError", err)
	}
}

func TestCanonicalizedHeaders(t *testing.T) {
	lower := map[string]string{
		"x-ms-version": "2023-11-03",
		"x-ms-date":    "Sun, 23 Aug 2026 12:00:00 GMT",
		"accept":       "application/xml",
		"x-ms-client-request-id": "abc123",
	}

	got := canonicalizedHeaders(lower)
	want := "x-ms-client-request-id:abc123\n" +
		"x-ms-date:Sun, 23 Aug 2026 12:00:00 GMT\n" +
		"x-ms-version:2023-11-03"
	if got != want {
		t.Errorf("canonicalizedHeaders() =\n%s\nwant:\n%s", got, want)
	}
}

// Header names are matched case-insensitively before canonicalization,
// so X-Ms-Date and x-ms-date sign identically.
func TestAuthorizationHeaderCaseInsensitive(t *testing.T) {
	mixed := map[string]string{
		"X-Ms-Date":    "Sun, 23 Aug 2026 12:00:00 GMT",
		"X-MS-VERSION": "2023-11-03",
	}
	lower := map[string]string{
		"x-ms-date":    "Sun, 23 Aug 2026 12:00:00 GMT",
		"x-ms-version": "2023-11-03",
	}

	a, err := AuthorizationHeader("GET", testCreds, mixed)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}
	b, err := AuthorizationHeader("GET", testCreds, lower)
	if err != nil {
		t.Fatalf("AuthorizationHeader() error = %v, want nil", err)
	}
	if a != b {
		t.Errorf("case of x-ms header names changed the signature:\n  %s\n  %s", a, b)
	}
}

func TestStandardHeaderLines(t *testing.T) {
	// Content-Length supplied, everything else empty: eleven positions
	// joined by newlines with Content-Length third.
	lower := map[string]string{"content-length": "42"}
	got := standardHeaderLines(lower)
	want := "\n\n42\n\n\n\n\n\n\n\n"
	if got != want {
		t.Errorf("standardHeaderLines() = %q, want %q", got, want)
	}
}

func TestCanonicalizedResource(t *testing.T) {
	got := canonicalizedResource("prodlogs")
	want := "/prodlogs/\ncomp:list"
	if got != want {
		t.Errorf("canonicalizedResource() = %q, want %q", got, want)
	}
}
