// Config loading for the charts CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/giftcharts/internal/paths"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyUser           = "user"
	cfgKeyTable          = "table"
	cfgKeySearchDebounce = "search_debounce"
	cfgKeySearchLimit    = "search_limit"
	cfgKeyHitsPerPage    = "hits_per_page"
	cfgKeyLogLevel       = "log_level"
	cfgKeyRedisAddr      = "redis_addr"
	cfgKeyRedisPassword  = "redis_password"
	cfgKeyRedisDB        = "redis_db"
	cfgKeyOwnerTTL       = "owner_cache_ttl"

	defaultLogLevel = "warn"
)

// configFile is the layout of config.yaml written on first run.
type configFile struct {
	Backend        string `yaml:"backend"`
	DataDir        string `yaml:"data_dir,omitempty"`
	User           string `yaml:"user,omitempty"`
	SearchDebounce string `yaml:"search_debounce"`
	SearchLimit    int    `yaml:"search_limit"`
	HitsPerPage    int    `yaml:"hits_per_page"`
	LogLevel       string `yaml:"log_level"`
	RedisAddr      string `yaml:"redis_addr,omitempty"`
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend:        types.BackendSQLite,
		DataDir:        dataDir,
		SearchDebounce: types.DefaultSearchDebounce.String(),
		SearchLimit:    types.DefaultSearchLimit,
		HitsPerPage:    types.DefaultHitsPerPage,
		LogLevel:       defaultLogLevel,
	}
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySearchDebounce, types.DefaultSearchDebounce)
	v.SetDefault(cfgKeySearchLimit, types.DefaultSearchLimit)
	v.SetDefault(cfgKeyHitsPerPage, types.DefaultHitsPerPage)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyOwnerTTL, time.Hour)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// coreConfig extracts the backend configuration from v.
func coreConfig(v *viper.Viper, dataDir string) types.Config {
	return types.Config{
		Backend:        v.GetString(cfgKeyBackend),
		DataDir:        dataDir,
		SearchDebounce: v.GetDuration(cfgKeySearchDebounce),
		SearchLimit:    v.GetInt(cfgKeySearchLimit),
		HitsPerPage:    v.GetInt(cfgKeyHitsPerPage),
	}
}

// writeConfigIfMissing creates configDir and a default config.yaml in it.
// An existing file is left alone. It reports whether a file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, paths.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfigFile(dataDir))
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# charts CLI configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// saveSetting stores key in config.yaml under configDir, creating the file
// if needed.
func saveSetting(v *viper.Viper, configDir, key string, value any) error {
	if _, err := writeConfigIfMissing(configDir, ""); err != nil {
		return err
	}
	v.Set(key, value)
	return v.WriteConfigAs(filepath.Join(configDir, paths.ConfigFileName))
}
