package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/euan-reid/story-server/internal/paths"
	"github.com/euan-reid/story-server/pkg/types"
)

// Config keys.
const (
	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeySync    = "sync"
	cfgKeySite    = "site"
)

// settings is the decoded config.yaml.
type settings struct {
	Backend string           `mapstructure:"backend" yaml:"backend"`
	DataDir string           `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Sync    string           `mapstructure:"sync" yaml:"sync,omitempty"`
	Site    types.SiteConfig `mapstructure:"site" yaml:"site"`
}

// datastoreConfig returns the backend configuration with dataDir resolved.
func (s settings) datastoreConfig(dataDir string) types.Config {
	return types.Config{Backend: s.Backend, DataDir: dataDir, Sync: s.Sync}
}

func defaultSettings() settings {
	return settings{
		Backend: types.BackendSQLite,
		Site:    types.DefaultSiteConfig(),
	}
}

// loadSettings reads config.yaml from configDir. A missing file yields the
// defaults. STORY_BACKEND and STORY_SYNC override the file.
func loadSettings(configDir string) (settings, error) {
	def := defaultSettings()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeySite, map[string]any{
		"site_name":         def.Site.SiteName,
		"base_url":          def.Site.BaseURL,
		"content_subdomain": def.Site.ContentSubdomain,
		"cms_subdomain":     def.Site.CMSSubdomain,
		"search_subdomain":  def.Site.SearchSubdomain,
	})
	_ = v.BindEnv(cfgKeyBackend, "STORY_BACKEND")
	_ = v.BindEnv(cfgKeySync, "STORY_SYNC")

	v.SetConfigFile(filepath.Join(configDir, paths.ConfigFileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return settings{}, fmt.Errorf("read config: %w", err)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// writeSettingsIfMissing writes s to path unless the file already exists.
// It reports whether a file was written.
func writeSettingsIfMissing(path string, s settings) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# storyctl configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// environment is the resolved configuration for one invocation.
type environment struct {
	configDir string
	dataDir   string
	settings  settings
}

// resolve loads settings and resolves the config and data directories from
// flags, environment variables, and the config file.
func (a *app) resolve() (environment, error) {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return environment{}, systemErr("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return environment{}, systemErr("%w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, s.DataDir)
	if err != nil {
		return environment{}, systemErr("resolve data dir: %w", err)
	}
	a.log.Debug("resolved directories",
		zap.String("config_dir", configDir),
		zap.String("data_dir", dataDir),
		zap.String("backend", s.Backend))
	return environment{configDir: configDir, dataDir: dataDir, settings: s}, nil
}
