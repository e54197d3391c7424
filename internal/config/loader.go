package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("FEEDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.EqualFold(filepath.Ext(configPath), ".ini") {
		if err := mergeINI(v, configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("feedpulse")
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
			home, err := os.UserHomeDir()
			if err == nil {
				v.AddConfigPath(filepath.Join(home, ".feedpulse"))
			}
		}

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// mergeINI loads the sectioned INI layout ([Credentials], [Settings], ...)
// into viper. Section and key names are case-insensitive.
func mergeINI(v *viper.Viper, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return err
	}

	values := make(map[string]any)
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection && len(section.Keys()) == 0 {
			continue
		}
		keys := make(map[string]any, len(section.Keys()))
		for _, key := range section.Keys() {
			keys[strings.ToLower(key.Name())] = key.String()
		}
		values[strings.ToLower(section.Name())] = keys
	}

	return v.MergeConfigMap(values)
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("settings.hashtag", cfg.Settings.Hashtag)
	v.SetDefault("settings.max_scrolls", cfg.Settings.MaxScrolls)
	v.SetDefault("settings.scroll_delay_min", cfg.Settings.ScrollDelayMin)
	v.SetDefault("settings.scroll_delay_max", cfg.Settings.ScrollDelayMax)
	v.SetDefault("settings.output_file", cfg.Settings.OutputFile)

	v.SetDefault("credentials.username", cfg.Credentials.Username)
	v.SetDefault("credentials.password", cfg.Credentials.Password)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.base_url", cfg.Browser.BaseURL)
	v.SetDefault("browser.timeout", cfg.Browser.Timeout)
	v.SetDefault("browser.debug_dump", cfg.Browser.DebugDump)
	v.SetDefault("browser.proxy", cfg.Browser.Proxy)
	v.SetDefault("browser.bin", cfg.Browser.Bin)

	v.SetDefault("extraction.union_containers", cfg.Extraction.UnionContainers)

	v.SetDefault("pipeline.dedup", cfg.Pipeline.Dedup)
	v.SetDefault("pipeline.collapse_whitespace", cfg.Pipeline.CollapseWhitespace)
	v.SetDefault("pipeline.redact_pii", cfg.Pipeline.RedactPII)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)
	v.SetDefault("storage.mirror", cfg.Storage.Mirror)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("logging.file", cfg.Logging.File)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
