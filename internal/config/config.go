// Package config provides configuration types and helpers for pcdnban.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application-wide configuration.
type Config struct {
	Format   string        `mapstructure:"format"`
	Verbose  bool          `mapstructure:"verbose"`
	LogLevel string        `mapstructure:"log_level"`
	LogFile  string        `mapstructure:"log_file"`
	LogDir   string        `mapstructure:"log_dir"`
	Workers  int           `mapstructure:"workers"`
	Merge    MergeConfig   `mapstructure:"merge"`
	Count    CountConfig   `mapstructure:"count"`
	Geo      GeoConfig     `mapstructure:"geo"`
	Filter   FilterConfig  `mapstructure:"filter"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// MergeConfig holds settings for the merge command.
type MergeConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`

	// Strategy selects the eliminator: "scan" or "trie"
	Strategy string `mapstructure:"strategy"`

	PreviewKept    int `mapstructure:"preview_kept"`    // Records echoed after a run
	PreviewRemoved int `mapstructure:"preview_removed"` // Removed blocks echoed after a run
}

// CountConfig holds settings for the count command.
type CountConfig struct {
	Output string `mapstructure:"output"`
	Top    int    `mapstructure:"top"` // Busiest addresses echoed after a run
}

// GeoConfig holds settings for the offline geolocation database.
type GeoConfig struct {
	CityDB   string `mapstructure:"city_db"`  // MaxMind City mmdb
	ASNDB    string `mapstructure:"asn_db"`   // Optional: MaxMind ASN mmdb for the ISP column
	Language string `mapstructure:"language"` // e.g. "zh-CN", falls back to "en"
	Unknown  string `mapstructure:"unknown"`  // Location used when a lookup fails
}

// FilterConfig holds settings for the filter command.
type FilterConfig struct {
	Input      string `mapstructure:"input"`
	Output     string `mapstructure:"output"`
	CIDROutput string `mapstructure:"cidr_output"`
	MinCount   int    `mapstructure:"min_count"`
	Region     string `mapstructure:"region"`
}

// MetricsConfig holds settings for the Prometheus textfile export.
type MetricsConfig struct {
	// File is written after each merge run when non-empty
	File string `mapstructure:"file"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_dir", filepath.Join(".", "logs"))
	v.SetDefault("workers", runtime.NumCPU())

	v.SetDefault("merge.input", "all_ip.origin.txt")
	v.SetDefault("merge.output", "all_ip.txt")
	v.SetDefault("merge.strategy", "scan")
	v.SetDefault("merge.preview_kept", 10)
	v.SetDefault("merge.preview_removed", 20)

	v.SetDefault("count.output", "ip-statistics.csv")
	v.SetDefault("count.top", 10)

	v.SetDefault("geo.city_db", "GeoLite2-City.mmdb")
	v.SetDefault("geo.asn_db", "")
	v.SetDefault("geo.language", "zh-CN")
	v.SetDefault("geo.unknown", "unknown")

	v.SetDefault("filter.input", "ip-statistics.csv")
	v.SetDefault("filter.output", "filtered.csv")
	v.SetDefault("filter.cidr_output", "cidrs.txt")
	v.SetDefault("filter.min_count", 80)
	v.SetDefault("filter.region", "江苏")

	v.SetDefault("metrics.file", "")
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json", "table":
	default:
		return fmt.Errorf("invalid format: %s (must be 'text', 'json', or 'table')", c.Format)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Merge.PreviewKept < 0 || c.Merge.PreviewRemoved < 0 {
		return fmt.Errorf("preview sizes must not be negative")
	}
	if c.Count.Top < 0 {
		return fmt.Errorf("count.top must not be negative, got %d", c.Count.Top)
	}
	if c.Filter.MinCount < 0 {
		return fmt.Errorf("filter.min_count must not be negative, got %d", c.Filter.MinCount)
	}

	return nil
}

// WorkerCount returns the configured worker count, at least 1.
func (c Config) WorkerCount() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
