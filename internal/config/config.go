// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Index   IndexConfig   `mapstructure:"index"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlConfig governs the frontier, fetcher, and worker pool.
type CrawlConfig struct {
	AllowDomain    string   `mapstructure:"allow_domain"`
	SeedURL        string   `mapstructure:"seed_url"`
	SeedURLs       []string `mapstructure:"seed_urls"`
	KeepPathRegex  string   `mapstructure:"keep_path_regex"`
	SkipHosts      []string `mapstructure:"skip_hosts"`
	UserAgent      string   `mapstructure:"user_agent"`
	MaxDepth       int      `mapstructure:"max_depth"`
	Concurrency    int      `mapstructure:"concurrency"`
	DelaySeconds   float64  `mapstructure:"delay_seconds"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// IndexConfig controls chunking of profile text before embedding.
type IndexConfig struct {
	MaxTokens     int `mapstructure:"max_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
}

// OpenAIConfig holds provider credentials and model names.
type OpenAIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	EmbedModel string `mapstructure:"embed_model"`
	ChatModel  string `mapstructure:"chat_model"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("STAFFSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawl.allow_domain", "liverpool.ac.uk")
	v.SetDefault("crawl.seed_url", "https://liverpool.ac.uk/")
	v.SetDefault("crawl.keep_path_regex", `^/people/[^/]+/?$`)
	v.SetDefault("crawl.skip_hosts", []string{"livrepository.liverpool.ac.uk"})
	v.SetDefault("crawl.user_agent", "StaffSearchBot/1.0 (+contact: staffsearch@example.com)")
	v.SetDefault("crawl.max_depth", 6)
	v.SetDefault("crawl.concurrency", 4)
	v.SetDefault("crawl.delay_seconds", 1.0)
	v.SetDefault("crawl.timeout_seconds", 20)
	v.SetDefault("index.max_tokens", 800)
	v.SetDefault("index.overlap_tokens", 200)
	v.SetDefault("openai.embed_model", "text-embedding-3-small")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawl.AllowDomain == "" {
		return fmt.Errorf("crawl.allow_domain is required")
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.Crawl.DelaySeconds < 0 {
		return fmt.Errorf("crawl.delay_seconds must be >= 0")
	}
	if c.Index.MaxTokens <= 0 {
		return fmt.Errorf("index.max_tokens must be > 0")
	}
	if c.Index.OverlapTokens < 0 {
		return fmt.Errorf("index.overlap_tokens must be >= 0")
	}
	return nil
}

// Delay converts the configured politeness delay into a duration.
func (c CrawlConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Timeout converts the configured fetch timeout into a duration.
func (c CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
