package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/NicolasAcosta04/SCR/internal/category"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Config holds the collaborator endpoints and feed tuning knobs.
type Config struct {
	ModelAPIURL       string   `yaml:"model_api_url"`
	AuthAPIURL        string   `yaml:"auth_api_url"`
	AuthToken         string   `yaml:"auth_token,omitempty"`
	UserID            string   `yaml:"user_id,omitempty"`
	PageSize          int      `yaml:"page_size,omitempty"`
	SortBy            string   `yaml:"sort_by,omitempty"`
	CacheTTL          string   `yaml:"cache_ttl,omitempty"`
	RequestTimeout    string   `yaml:"request_timeout,omitempty"`
	SnapshotRetention string   `yaml:"snapshot_retention,omitempty"`
	DefaultCategories []string `yaml:"default_categories,omitempty"`
}

var validSortOrders = map[string]bool{"relevancy": true, "popularity": true, "publishedAt": true}

// ResolvedToken returns the auth token (config or env var).
func (c *Config) ResolvedToken() string {
	if c.AuthToken != "" {
		return c.AuthToken
	}
	return os.Getenv("SCR_AUTH_TOKEN")
}

// ResolvedUserID returns the configured user id, or a fresh anonymous id.
// Anonymous ids are stable only for the lifetime of one process.
func (c *Config) ResolvedUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return "anon-" + uuid.NewString()
}

// GetPageSize returns the page size, defaulting to 10.
func (c *Config) GetPageSize() int {
	if c.PageSize <= 0 {
		return 10
	}
	return c.PageSize
}

// GetSortBy returns the provider sort order, defaulting to relevancy.
func (c *Config) GetSortBy() string {
	if c.SortBy == "" {
		return "relevancy"
	}
	return c.SortBy
}

// TTL returns the cache freshness window, defaulting to 5 minutes.
func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Timeout returns the per-request timeout, defaulting to 10 seconds.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// SnapshotRetentionDuration returns how long a stored snapshot stays
// usable, defaulting to 24 hours.
func (c *Config) SnapshotRetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.SnapshotRetention)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Categories returns the configured fallback categories as typed codes.
func (c *Config) Categories() []category.Category {
	out := make([]category.Category, 0, len(c.DefaultCategories))
	for _, s := range c.DefaultCategories {
		out = append(out, category.Category(s))
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "scr", "config.yaml")
}

func SnapshotPath() string {
	return filepath.Join(xdg.CacheHome, "scr", "feed.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	for name, raw := range map[string]string{
		"model_api_url": cfg.ModelAPIURL,
		"auth_api_url":  cfg.AuthAPIURL,
	} {
		if raw == "" {
			return fmt.Errorf("%s is required", name)
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid url: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s: url scheme must be http or https, got %q", name, u.Scheme)
		}
	}

	if cfg.PageSize < 0 || cfg.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", cfg.PageSize)
	}
	if cfg.SortBy != "" && !validSortOrders[cfg.SortBy] {
		return fmt.Errorf("unknown sort_by %q (valid: relevancy, popularity, publishedAt)", cfg.SortBy)
	}

	if len(cfg.DefaultCategories) > 5 {
		return fmt.Errorf("at most 5 default categories allowed, got %d", len(cfg.DefaultCategories))
	}
	for _, s := range cfg.DefaultCategories {
		if !category.Valid(category.Category(s)) {
			return fmt.Errorf("unknown category %q (valid: %v)", s, category.All())
		}
	}
	return nil
}
