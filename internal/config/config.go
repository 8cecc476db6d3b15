package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type CatalogConfig struct {
	Endpoint         string  `toml:"endpoint"`
	TimeoutSeconds   float64 `toml:"timeout_seconds"`
	MaxAttempts      int     `toml:"max_attempts"`
	BackoffSeconds   float64 `toml:"backoff_seconds"`
	MaxBackoffSecs   float64 `toml:"max_backoff_seconds"`
	ContextCharLimit int     `toml:"context_char_limit"`
}

type ResolutionConfig struct {
	PrimaryLanguage     string  `toml:"primary_language"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	CandidateCap        int     `toml:"candidate_cap"`
}

type LedgerConfig struct {
	Path string `toml:"path"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Resolution ResolutionConfig `toml:"resolution"`
	Ledger     LedgerConfig     `toml:"ledger"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with the engine defaults.
func (c *Config) ApplyDefaults() {
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = 30
	}
	if c.Catalog.MaxAttempts <= 0 {
		c.Catalog.MaxAttempts = 3
	}
	if c.Catalog.BackoffSeconds <= 0 {
		c.Catalog.BackoffSeconds = 0.5
	}
	if c.Catalog.MaxBackoffSecs <= 0 {
		c.Catalog.MaxBackoffSecs = 8
	}
	if c.Catalog.ContextCharLimit <= 0 {
		c.Catalog.ContextCharLimit = 800
	}
	if c.Resolution.PrimaryLanguage == "" {
		c.Resolution.PrimaryLanguage = "en"
	}
	if c.Resolution.SimilarityThreshold <= 0 {
		c.Resolution.SimilarityThreshold = 0.65
	}
	if c.Resolution.CandidateCap <= 0 {
		c.Resolution.CandidateCap = 10
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "flowlink.db"
	}
}
