package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.LogContainer != "applogs" {
		t.Errorf("LogContainer = %q, want default applogs", cfg.LogContainer)
	}
	if cfg.SASExpiryHours != 24 {
		t.Errorf("SASExpiryHours = %d, want default 24", cfg.SASExpiryHours)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PAAS_API_URL", "https://lifecycle.example.com/api/v1")
	t.Setenv("PAAS_API_KEY", "key-123")
	t.Setenv("PAAS_LOG_CONTAINER", "dblogs")
	t.Setenv("PAAS_SAS_EXPIRY_HOURS", "2")
	t.Setenv("PAAS_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.APIBaseURL != "https://lifecycle.example.com/api/v1" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.LogContainer != "dblogs" {
		t.Errorf("LogContainer = %q, want dblogs", cfg.LogContainer)
	}
	if cfg.SASExpiryHours != 2 {
		t.Errorf("SASExpiryHours = %d, want 2", cfg.SASExpiryHours)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestValidateAPI(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateAPI(); err == nil {
		t.Error("ValidateAPI() = nil for empty config, want error")
	}

	cfg = &Config{APIBaseURL: "https://lifecycle.example.com", APIKey: "k"}
	if err := cfg.ValidateAPI(); err != nil {
		t.Errorf("ValidateAPI() = %v for complete config, want nil", err)
	}
}
