// Package paths resolves configuration and data directory locations.
// Every directory follows the same precedence: command-line flag, then
// environment variable, then the platform default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform locations.
const AppName = "giftcharts"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CHARTS_CONFIG_DIR"
	EnvDataDir   = "CHARTS_DATA_DIR"
)

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// platformBase returns the per-user directory for AppName. On Linux it is
// $xdgEnv or ~/<linuxFallback...>; elsewhere os.UserConfigDir.
func platformBase(xdgEnv string, linuxFallback ...string) (string, error) {
	if platformDir.goos != "linux" {
		// ~/Library/Application Support on macOS, %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, linuxFallback...)
	return filepath.Join(append(parts, AppName)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/giftcharts (fallback ~/.config/giftcharts)
// macOS:   ~/Library/Application Support/giftcharts
// Windows: %APPDATA%/giftcharts
func DefaultConfigDir() (string, error) {
	return platformBase("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/giftcharts (fallback ~/.local/share/giftcharts)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	return platformBase("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > CHARTS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > data_dir in config.yaml > CHARTS_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}
