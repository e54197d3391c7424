package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Settings.MaxScrolls < 0 {
		return fmt.Errorf("settings.max_scrolls must be >= 0, got %d", cfg.Settings.MaxScrolls)
	}
	if cfg.Settings.ScrollDelayMin < 0 {
		return fmt.Errorf("settings.scroll_delay_min must be >= 0, got %v", cfg.Settings.ScrollDelayMin)
	}
	if cfg.Settings.ScrollDelayMax < cfg.Settings.ScrollDelayMin {
		return fmt.Errorf("settings.scroll_delay_max (%v) must be >= scroll_delay_min (%v)",
			cfg.Settings.ScrollDelayMax, cfg.Settings.ScrollDelayMin)
	}
	if strings.TrimSpace(cfg.Settings.OutputFile) == "" && cfg.Storage.Type != "mongo" {
		return fmt.Errorf("settings.output_file must not be empty")
	}

	if cfg.Browser.Timeout <= 0 {
		return fmt.Errorf("browser.timeout must be > 0")
	}
	if err := ValidateURL(cfg.Browser.BaseURL); err != nil {
		return fmt.Errorf("browser.base_url: %w", err)
	}
	if cfg.Browser.Proxy != "" {
		if _, err := url.Parse(cfg.Browser.Proxy); err != nil {
			return fmt.Errorf("browser.proxy: %w", err)
		}
	}

	rules := map[string][]RuleSpec{
		"containers": cfg.Extraction.Containers,
		"author":     cfg.Extraction.Author,
		"content":    cfg.Extraction.Content,
		"timestamp":  cfg.Extraction.Timestamp,
	}
	for field, specs := range rules {
		for i, spec := range specs {
			if err := validateRule(spec); err != nil {
				return fmt.Errorf("extraction.%s[%d]: %w", field, i, err)
			}
		}
	}

	validStorageTypes := map[string]bool{
		"": true, "csv": true, "json": true, "jsonl": true, "sqlite": true, "mongo": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: csv, json, jsonl, sqlite, mongo)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongo" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri is required for mongo storage")
	}
	for _, m := range cfg.Storage.Mirror {
		if m == "" || !validStorageTypes[m] {
			return fmt.Errorf("storage.mirror %q is not supported", m)
		}
		if m == "mongo" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for mongo storage")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

func validateRule(spec RuleSpec) error {
	switch strings.ToLower(spec.Kind) {
	case "", "class":
		if spec.Tag == "" {
			return fmt.Errorf("class rule needs a tag")
		}
	case "attr":
		if spec.Tag == "" || spec.Attr == "" {
			return fmt.Errorf("attr rule needs a tag and an attr")
		}
	case "css", "xpath", "regex":
		if strings.TrimSpace(spec.Expr) == "" {
			return fmt.Errorf("%s rule needs an expr", spec.Kind)
		}
	default:
		return fmt.Errorf("unknown rule kind %q", spec.Kind)
	}
	return nil
}

// ValidateURL checks if a URL string is usable as a session base URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
