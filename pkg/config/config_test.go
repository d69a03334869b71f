package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.TTL != 7*24*time.Hour {
		t.Errorf("expected 7d TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.RateLimit.Requests != 60 {
		t.Errorf("expected 60 requests per window, got %d", cfg.RateLimit.Requests)
	}
	if cfg.Request.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Request.Timeout)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test-123")

	content := `
db_path: "test.db"
default_provider: anthropic
providers:
  - name: openai
    api_key: ${TEST_OPENAI_KEY}
  - name: ollama
    base_url: http://localhost:11434
cache:
  enabled: true
  ttl: 48h
  memory_limit_mb: 8
rate_limit:
  requests: 10
  window: 1m
pricing:
  - provider: openai
    model: gpt-5
    input_cost_per_1k: 0.005
    output_cost_per_1k: 0.015
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DefaultProvider != "anthropic" {
		t.Errorf("expected anthropic, got %s", cfg.DefaultProvider)
	}
	if cfg.Providers[0].APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.Providers[0].APIKey)
	}
	if cfg.Cache.TTL != 48*time.Hour {
		t.Errorf("expected 48h TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.RateLimit.Requests != 10 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("rate limit not parsed: %+v", cfg.RateLimit)
	}
	if len(cfg.Pricing) != 1 || cfg.Pricing[0].InputCost != 0.005 {
		t.Errorf("pricing not parsed: %+v", cfg.Pricing)
	}

	// Defaults survive partial overlay.
	if cfg.Workers.Count != 4 {
		t.Errorf("expected default worker count, got %d", cfg.Workers.Count)
	}

	if _, ok := cfg.Provider("ollama"); !ok {
		t.Error("expected ollama provider lookup to succeed")
	}
	if _, ok := cfg.Provider("google"); ok {
		t.Error("expected google provider lookup to fail")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
