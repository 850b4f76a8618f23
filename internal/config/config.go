// Package config holds the environment-driven wiring for cmd/ideaflow-run.
// The orchestrator core never reads the environment itself (see
// ideaflow.Orchestrator); this package is purely for the outer wiring.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the three-tier (defaults -> env -> functional options) wiring
// config for the demo CLI and any embedding application.
type Config struct {
	Provider       string        // "http" or "bedrock"
	ProviderAPIKey string        // env: PROVIDER_API_KEY
	ProviderModel  string        // env: PROVIDER_MODEL
	ProviderURL    string        // env: PROVIDER_URL (http provider only)
	AWSRegion      string        // env: AWS_REGION (bedrock provider only)

	CacheURL     string // env: CACHE_URL; cmd/ideaflow-run does not read it and always uses an in-memory cache
	CacheTTL     time.Duration
	LogLevel     string // env: LOG_LEVEL
	WorkflowOpts WorkflowOptionsSnapshot
}

// WorkflowOptionsSnapshot mirrors the subset of ideaflow.WorkflowOptions a
// CLI invocation can override via a YAML file; NumTopCandidates and Timeout
// can also be overridden via the environment, MaxConcurrentAgents cannot.
type WorkflowOptionsSnapshot struct {
	NumTopCandidates    int
	Timeout             time.Duration
	MaxConcurrentAgents int
}

// DefaultConfig returns the hardcoded baseline before any environment
// override is applied.
func DefaultConfig() *Config {
	return &Config{
		Provider:    "http",
		ProviderURL: "http://localhost:11434/v1",
		CacheTTL:    30 * time.Minute,
		LogLevel:    "info",
		WorkflowOpts: WorkflowOptionsSnapshot{
			NumTopCandidates:    3,
			Timeout:             10 * time.Minute,
			MaxConcurrentAgents: 10,
		},
	}
}

// Option mutates a Config during construction, applied after environment
// overrides so callers can always win over the process environment.
type Option func(*Config) error

// WithProvider overrides the provider selection.
func WithProvider(name string) Option {
	return func(c *Config) error {
		c.Provider = name
		return nil
	}
}

// WithCacheURL overrides the cache backing store URL.
func WithCacheURL(url string) Option {
	return func(c *Config) error {
		c.CacheURL = url
		return nil
	}
}

// Load builds a Config from defaults, then environment variables, then the
// supplied options, matching the teacher's explicit-os.Getenv convention
// rather than a reflection-based env-tag decoder.
func Load(opts ...Option) (*Config, error) {
	c := DefaultConfig()

	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.ProviderAPIKey = v
	}
	if v := os.Getenv("PROVIDER_MODEL"); v != "" {
		c.ProviderModel = v
	}
	if v := os.Getenv("PROVIDER_URL"); v != "" {
		c.ProviderURL = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.AWSRegion = v
	}
	if v := os.Getenv("CACHE_URL"); v != "" {
		c.CacheURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("WORKFLOW_NUM_TOP_CANDIDATES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: WORKFLOW_NUM_TOP_CANDIDATES: %w", err)
		}
		c.WorkflowOpts.NumTopCandidates = n
	}
	if v := os.Getenv("WORKFLOW_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: WORKFLOW_TIMEOUT_SECONDS: %w", err)
		}
		c.WorkflowOpts.Timeout = time.Duration(n) * time.Second
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// yamlOverrides is the subset of Config a YAML file may override, kept
// separate from Config itself so the zero value of a field ("not present
// in the file") is distinguishable from an explicit override.
type yamlOverrides struct {
	Provider       *string `yaml:"provider"`
	ProviderModel  *string `yaml:"provider_model"`
	ProviderURL    *string `yaml:"provider_url"`
	AWSRegion      *string `yaml:"aws_region"`
	CacheURL       *string `yaml:"cache_url"`
	LogLevel       *string `yaml:"log_level"`
	WorkflowOpts   *struct {
		NumTopCandidates    *int `yaml:"num_top_candidates"`
		TimeoutSeconds      *int `yaml:"timeout_seconds"`
		MaxConcurrentAgents *int `yaml:"max_concurrent_agents"`
	} `yaml:"workflow"`
}

// ApplyYAMLFile merges a YAML config document (the static counterpart to
// the environment-variable tier) into c, in the same "win over whatever
// came before" order as the functional Options passed to Load.
func (c *Config) ApplyYAMLFile(data []byte) error {
	var overrides yamlOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	if overrides.Provider != nil {
		c.Provider = *overrides.Provider
	}
	if overrides.ProviderModel != nil {
		c.ProviderModel = *overrides.ProviderModel
	}
	if overrides.ProviderURL != nil {
		c.ProviderURL = *overrides.ProviderURL
	}
	if overrides.AWSRegion != nil {
		c.AWSRegion = *overrides.AWSRegion
	}
	if overrides.CacheURL != nil {
		c.CacheURL = *overrides.CacheURL
	}
	if overrides.LogLevel != nil {
		c.LogLevel = *overrides.LogLevel
	}
	if overrides.WorkflowOpts != nil {
		if overrides.WorkflowOpts.NumTopCandidates != nil {
			c.WorkflowOpts.NumTopCandidates = *overrides.WorkflowOpts.NumTopCandidates
		}
		if overrides.WorkflowOpts.TimeoutSeconds != nil {
			c.WorkflowOpts.Timeout = time.Duration(*overrides.WorkflowOpts.TimeoutSeconds) * time.Second
		}
		if overrides.WorkflowOpts.MaxConcurrentAgents != nil {
			c.WorkflowOpts.MaxConcurrentAgents = *overrides.WorkflowOpts.MaxConcurrentAgents
		}
	}
	return nil
}
