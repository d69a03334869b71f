package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// Config holds all Inkgate gateway configuration. It is constructed once at
// startup and threaded through the orchestrator; there is no global state.
type Config struct {
	DBPath          string                `yaml:"db_path"`
	DefaultProvider string                `yaml:"default_provider"`
	DefaultModel    string                `yaml:"default_model"`
	Providers       []ProviderConfig      `yaml:"providers"`
	Cache           CacheConfig           `yaml:"cache"`
	RateLimit       RateLimitConfig       `yaml:"rate_limit"`
	Request         RequestConfig         `yaml:"request"`
	Workers         WorkerConfig          `yaml:"workers"`
	Usage           UsageConfig           `yaml:"usage"`
	Context         ContextConfig         `yaml:"context"`
	Pricing         []models.ModelPricing `yaml:"pricing"`
}

// ProviderConfig defines one upstream text-generation provider.
// Name is "openai", "anthropic", "google", or "ollama". BaseURL overrides the
// provider's default endpoint; ollama needs no API key.
type ProviderConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// CacheConfig controls both cache tiers.
type CacheConfig struct {
	Enabled              bool          `yaml:"enabled"`
	TTL                  time.Duration `yaml:"ttl"`
	MemoryLimitMB        int           `yaml:"memory_limit_mb"`
	CompressionThreshold int           `yaml:"compression_threshold"`
	SweepInterval        time.Duration `yaml:"sweep_interval"`
}

// RateLimitConfig sets the per-provider request window. QueueDepth bounds the
// FIFO wait queue for denied requests; zero disables queuing.
type RateLimitConfig struct {
	Requests   int           `yaml:"requests"`
	Window     time.Duration `yaml:"window"`
	QueueDepth int           `yaml:"queue_depth"`
}

// RequestConfig controls per-call behavior.
type RequestConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// WorkerConfig sizes the dispatch pool and its request queue.
type WorkerConfig struct {
	Count      int `yaml:"count"`
	QueueDepth int `yaml:"queue_depth"`
}

// UsageConfig controls the usage log.
type UsageConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// ContextConfig bounds project context merged into prompts.
type ContextConfig struct {
	TokenBudget int `yaml:"token_budget"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath:          "inkgate.db",
		DefaultProvider: "openai",
		DefaultModel:    "gpt-3.5-turbo",
		Cache: CacheConfig{
			Enabled:              true,
			TTL:                  7 * 24 * time.Hour,
			MemoryLimitMB:        32,
			CompressionThreshold: 1024,
			SweepInterval:        6 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests:   60,
			Window:     time.Hour,
			QueueDepth: 16,
		},
		Request: RequestConfig{
			Timeout:     30 * time.Second,
			MaxRetries:  3,
			WaitTimeout: 2 * time.Minute,
		},
		Workers: WorkerConfig{
			Count:      4,
			QueueDepth: 64,
		},
		Usage: UsageConfig{
			RetentionDays: 90,
		},
		Context: ContextConfig{
			TokenBudget: 1000,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Provider returns the configuration for a named provider.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}
