package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paasops/paas-mcp/internal/config"
	"github.com/paasops/paas-mcp/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{APIBaseURL: server.URL, APIKey: "test-key"}
	client, err := NewClient(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	t.Cleanup(client.Close)
	return client, server
}

func TestNewClientRejectsEmptyConfig(t *testing.T) {
	_, err := NewClient(&config.Config{}, logging.Nop())
	if err == nil {
		t.Fatal("NewClient() error = nil for empty config, want error")
	}
}

func TestListEnvironmentsCachesResult(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		if r.URL.Path != "/environments" {
			t.Errorf("path = %q, want /environments", r.URL.Path)
		}
		fmt.Fprint(w, `[{"key":"dev","name":"Development","kind":"paas"},{"key":"prod","name":"Production","kind":"paas","isProduction":true}]`)
	}))

	ctx := context.Background()
	first, err := client.ListEnvironments(ctx)
	if err != nil {
		t.Fatalf("ListEnvironments() error = %v, want nil", err)
	}
	if len(first) != 2 || first[1].Key != "prod" || !first[1].IsProduction {
		t.Errorf("environments = %+v, want decoded dev/prod", first)
	}

	// Second call must come from cache.
	second, err := client.ListEnvironments(ctx)
	if err != nil {
		t.Fatalf("ListEnvironments() error = %v, want nil", err)
	}
	if len(second) != 2 {
		t.Errorf("cached environments = %+v", second)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (second call cached)", requests)
	}
}

func TestTriggerDeployment(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/deployments" {
			t.Errorf("%s %s, want POST /deployments", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		fmt.Fprint(w, `{"id":"dep-42","application":"shop","source":"test","target":"prod","status":"running"}`)
	}))

	deployment, err := client.TriggerDeployment(context.Background(), "shop", "test", "prod")
	if err != nil {
		t.Fatalf("TriggerDeployment() error = %v, want nil", err)
	}
	if deployment.ID != "dep-42" || deployment.Status != "running" {
		t.Errorf("deployment = %+v, want dep-42 running", deployment)
	}
}

func TestAPIErrorSurfacesStatusAndBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"no such deployment"}`)
	}))

	_, err := client.DeploymentStatus(context.Background(), "nope")
	if !IsNotFound(err) {
		t.Fatalf("DeploymentStatus() error = %v, want IsNotFound", err)
	}
}

func TestStorageConnectionStringNotCached(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"connectionString":"AccountName=prodlogs;AccountKey=c2VjcmV0"}`)
	}))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		conn, err := client.StorageConnectionString(ctx)
		if err != nil {
			t.Fatalf("StorageConnectionString() error = %v, want nil", err)
		}
		if conn != "AccountName=prodlogs;AccountKey=c2VjcmV0" {
			t.Errorf("connection string = %q", conn)
		}
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (credential material is never cached)", requests)
	}
}
