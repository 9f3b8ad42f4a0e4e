package types

import (
	"errors"
	"fmt"
)

// Config holds backend selection and parameters for Datastore.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Sync    string `json:"sync" yaml:"sync" mapstructure:"sync"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Sync strategies for the SQLite backend's JSONL file.
const (
	SyncImmediate = "immediate" // rewrite the file on every Put
	SyncOnClose   = "on_close"  // rewrite the file once, on Detach
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
	ErrBaseURLEmpty        = errors.New("base URL must not be empty")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

var knownSyncStrategies = map[string]bool{
	"":            true,
	SyncImmediate: true,
	SyncOnClose:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownSyncStrategies[c.Sync] {
		return ErrSyncStrategyUnknown
	}
	return nil
}

// SyncStrategy returns the effective sync strategy, defaulting to immediate.
func (c Config) SyncStrategy() string {
	if c.Sync == "" {
		return SyncImmediate
	}
	return c.Sync
}

// SiteConfig describes the public site. Subdomain fields hold prefixes;
// the host methods join them with BaseURL.
type SiteConfig struct {
	SiteName         string `json:"site_name" yaml:"site_name" mapstructure:"site_name"`
	BaseURL          string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	ContentSubdomain string `json:"content_subdomain" yaml:"content_subdomain" mapstructure:"content_subdomain"`
	CMSSubdomain     string `json:"cms_subdomain" yaml:"cms_subdomain" mapstructure:"cms_subdomain"`
	SearchSubdomain  string `json:"search_subdomain" yaml:"search_subdomain" mapstructure:"search_subdomain"`
}

// DefaultSiteConfig returns the built-in site settings.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		SiteName:         "A Story Site",
		BaseURL:          "example.com",
		ContentSubdomain: "www",
		CMSSubdomain:     "author",
		SearchSubdomain:  "search",
	}
}

// Validate returns ErrBaseURLEmpty when no base URL is set.
func (s SiteConfig) Validate() error {
	if s.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	return nil
}

// ContentHost returns the fully qualified content host.
func (s SiteConfig) ContentHost() string { return s.host(s.ContentSubdomain) }

// CMSHost returns the fully qualified authoring host.
func (s SiteConfig) CMSHost() string { return s.host(s.CMSSubdomain) }

// SearchHost returns the fully qualified search host.
func (s SiteConfig) SearchHost() string { return s.host(s.SearchSubdomain) }

func (s SiteConfig) host(prefix string) string {
	if prefix == "" {
		return s.BaseURL
	}
	return fmt.Sprintf("%s.%s", prefix, s.BaseURL)
}
