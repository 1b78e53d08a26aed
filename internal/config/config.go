// Package config loads and validates scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all scraper configuration knobs loaded via Viper.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Extract ExtractConfig `mapstructure:"extract"`
	Archive ArchiveConfig `mapstructure:"archive"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig governs access to the regulations.gov API.
type APIConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	Keys            []string `mapstructure:"keys"`
	KeyBlockSize    int      `mapstructure:"key_block_size"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
	DetailDelayMs   int      `mapstructure:"detail_delay_ms"`
	MetadataDelayMs int      `mapstructure:"metadata_delay_ms"`
}

// ScrapeConfig governs the watermark harvester and the date walk.
type ScrapeConfig struct {
	PageSize           int    `mapstructure:"page_size"`
	MaxPages           int    `mapstructure:"max_pages"`
	WatermarkSkewHours int    `mapstructure:"watermark_skew_hours"`
	StartDate          string `mapstructure:"start_date"`
}

// ExtractConfig governs attachment download and text extraction.
type ExtractConfig struct {
	PageCap       int    `mapstructure:"page_cap"`
	ConverterPath string `mapstructure:"converter_path"`
	TempDir       string `mapstructure:"temp_dir"`
}

// ArchiveConfig selects and configures the raw-response blob store.
type ArchiveConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	LocalDir  string `mapstructure:"local_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for run-summary notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig controls the optional embedded metrics listener.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REGGOV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("reggov")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.regulations.gov/v4")
	v.SetDefault("api.key_block_size", 50)
	v.SetDefault("api.timeout_seconds", 60)
	v.SetDefault("api.detail_delay_ms", 400)
	v.SetDefault("api.metadata_delay_ms", 1500)
	v.SetDefault("scrape.page_size", 250)
	v.SetDefault("scrape.max_pages", 19)
	v.SetDefault("scrape.watermark_skew_hours", 5)
	v.SetDefault("extract.page_cap", 3)
	v.SetDefault("extract.converter_path", "soffice")
	v.SetDefault("archive.backend", "gcs")
	v.SetDefault("archive.prefix", "data/raw")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if len(c.API.Keys) == 0 {
		return fmt.Errorf("api.keys must contain at least one credential")
	}
	if c.API.KeyBlockSize <= 0 {
		return fmt.Errorf("api.key_block_size must be > 0")
	}
	if c.Scrape.PageSize <= 0 || c.Scrape.PageSize > 250 {
		return fmt.Errorf("scrape.page_size must be in (0, 250]")
	}
	if c.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be > 0")
	}
	if c.Extract.PageCap <= 0 {
		return fmt.Errorf("extract.page_cap must be > 0")
	}
	switch c.Archive.Backend {
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.backend is gcs")
		}
	case "local":
		if c.Archive.LocalDir == "" {
			return fmt.Errorf("archive.local_dir must be set when archive.backend is local")
		}
	case "none":
	default:
		return fmt.Errorf("archive.backend must be one of gcs, local, none")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set")
	}
	return nil
}

// DetailDelay is the fixed throttle between consecutive detail fetches.
func (c Config) DetailDelay() time.Duration {
	return time.Duration(c.API.DetailDelayMs) * time.Millisecond
}

// MetadataDelay is the fixed throttle between docket/document metadata fetches.
func (c Config) MetadataDelay() time.Duration {
	return time.Duration(c.API.MetadataDelayMs) * time.Millisecond
}

// WatermarkSkew is the interval subtracted from a page's trailing
// lastModifiedDate before it is reused as a watermark filter.
func (c Config) WatermarkSkew() time.Duration {
	return time.Duration(c.Scrape.WatermarkSkewHours) * time.Hour
}
