package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete keywarden configuration
type Config struct {
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
	Paths   PathsConfig   `mapstructure:"paths"`
}

// NotifyConfig controls the notification channel and sender behavior
type NotifyConfig struct {
	// ReadinessWaitSeconds bounds how long a deferring instance waits for
	// the running sibling to accept a connection (default: 10)
	ReadinessWaitSeconds int `mapstructure:"readiness_wait_seconds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// PathsConfig controls where keywarden stores data
type PathsConfig struct {
	// VaultFile is the credential store location.
	// If empty, defaults to vault.toml under the config directory.
	// Supports ~ for home directory expansion.
	VaultFile string `mapstructure:"vault_file"`

	// RuntimeDir is where the notification socket is created.
	// If empty, defaults to XDG_RUNTIME_DIR or the system temp directory.
	RuntimeDir string `mapstructure:"runtime_dir"`
}

// ReadinessWait returns the sender readiness bound as a time.Duration
func (n *NotifyConfig) ReadinessWait() time.Duration {
	return time.Duration(n.ReadinessWaitSeconds) * time.Second
}

// ResolveVaultFile returns the resolved vault file path.
// If VaultFile is empty, it returns the default under the config directory.
// If VaultFile starts with ~, it expands to the user's home directory.
func (p *PathsConfig) ResolveVaultFile() string {
	if p.VaultFile == "" {
		return filepath.Join(ConfigDir(), "vault.toml")
	}
	return expandHome(p.VaultFile)
}

// ResolveRuntimeDir returns the directory for the notification socket.
func (p *PathsConfig) ResolveRuntimeDir() string {
	if p.RuntimeDir != "" {
		return expandHome(p.RuntimeDir)
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return filepath.Join(xdg, "keywarden")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("keywarden-%d", os.Getuid()))
}

func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Notify: NotifyConfig{
			ReadinessWaitSeconds: 10,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Paths: PathsConfig{
			VaultFile:  "", // Empty means use default: <config dir>/vault.toml
			RuntimeDir: "", // Empty means use XDG_RUNTIME_DIR or temp
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("notify.readiness_wait_seconds", defaults.Notify.ReadinessWaitSeconds)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	viper.SetDefault("paths.vault_file", defaults.Paths.VaultFile)
	viper.SetDefault("paths.runtime_dir", defaults.Paths.RuntimeDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "keywarden")
	}
	// Fall back to ~/.config/keywarden
	home, err := os.UserHomeDir()
	if err != nil {
		return ".keywarden"
	}
	return filepath.Join(home, ".config", "keywarden")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
