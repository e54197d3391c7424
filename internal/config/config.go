package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for feedpulse.
type Config struct {
	Settings    SettingsConfig    `mapstructure:"settings"    yaml:"settings"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Browser     BrowserConfig     `mapstructure:"browser"     yaml:"browser"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"  yaml:"extraction"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"    yaml:"pipeline"`
	Storage     StorageConfig     `mapstructure:"storage"     yaml:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging"     yaml:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"     yaml:"metrics"`
}

// SettingsConfig holds the run parameters. Delays are in seconds.
type SettingsConfig struct {
	Hashtag        string  `mapstructure:"hashtag"          yaml:"hashtag"`
	MaxScrolls     int     `mapstructure:"max_scrolls"      yaml:"max_scrolls"`
	ScrollDelayMin float64 `mapstructure:"scroll_delay_min" yaml:"scroll_delay_min"`
	ScrollDelayMax float64 `mapstructure:"scroll_delay_max" yaml:"scroll_delay_max"`
	OutputFile     string  `mapstructure:"output_file"      yaml:"output_file"`
}

// DelayRange returns the scroll delay bounds as durations.
func (s SettingsConfig) DelayRange() (time.Duration, time.Duration) {
	return seconds(s.ScrollDelayMin), seconds(s.ScrollDelayMax)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// CredentialsConfig holds the account used to open the session.
type CredentialsConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// BrowserConfig controls the automated browsing session.
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless"      yaml:"headless"`
	Stealth     bool          `mapstructure:"stealth"       yaml:"stealth"`
	UserAgent   string        `mapstructure:"user_agent"    yaml:"user_agent"`
	UserDataDir string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	BaseURL     string        `mapstructure:"base_url"      yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"       yaml:"timeout"`
	DebugDump   string        `mapstructure:"debug_dump"    yaml:"debug_dump"`
	Proxy       string        `mapstructure:"proxy"         yaml:"proxy"`
	Bin         string        `mapstructure:"bin"           yaml:"bin"`
}

// ExtractionConfig overrides the built-in selector chains.
// An empty list keeps the default chain for that field.
type ExtractionConfig struct {
	UnionContainers bool       `mapstructure:"union_containers" yaml:"union_containers"`
	Containers      []RuleSpec `mapstructure:"containers"       yaml:"containers"`
	Author          []RuleSpec `mapstructure:"author"           yaml:"author"`
	Content         []RuleSpec `mapstructure:"content"          yaml:"content"`
	Timestamp       []RuleSpec `mapstructure:"timestamp"        yaml:"timestamp"`
}

// RuleSpec is the configuration form of a single extraction rule.
type RuleSpec struct {
	Kind    string   `mapstructure:"kind"    yaml:"kind"` // class, attr, css, xpath, regex
	Tag     string   `mapstructure:"tag"     yaml:"tag"`
	Classes []string `mapstructure:"classes" yaml:"classes"`
	Attr    string   `mapstructure:"attr"    yaml:"attr"`
	Expr    string   `mapstructure:"expr"    yaml:"expr"`
}

// PipelineConfig toggles the optional record middlewares.
type PipelineConfig struct {
	Dedup              bool `mapstructure:"dedup"               yaml:"dedup"`
	CollapseWhitespace bool `mapstructure:"collapse_whitespace" yaml:"collapse_whitespace"`
	RedactPII          bool `mapstructure:"redact_pii"          yaml:"redact_pii"`
}

// StorageConfig controls the record sink.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`

	// Mirror lists extra backends that receive the same records, e.g. ["sqlite"].
	// File backends write next to the output file with their own extension.
	Mirror []string `mapstructure:"mirror" yaml:"mirror"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
	File   string `mapstructure:"file"   yaml:"file"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			MaxScrolls:     10,
			ScrollDelayMin: 2,
			ScrollDelayMax: 4,
			OutputFile:     "data/posts.csv",
		},
		Browser: BrowserConfig{
			Headless:  true,
			Stealth:   true,
			BaseURL:   "https://www.linkedin.com",
			Timeout:   60 * time.Second,
			DebugDump: "debug_page.html",
		},
		Storage: StorageConfig{
			MongoDatabase:   "feedpulse",
			MongoCollection: "posts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
