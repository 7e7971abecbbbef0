// Package config handles XDG configuration directory, settings and file paths.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// SettingsFile is the settings filename.
	SettingsFile = "config.yaml"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// EnvPrefix prefixes environment overrides (TASKBOARD_BASE_URL, ...).
	EnvPrefix = "TASKBOARD"
)

// Setting defaults.
const (
	DefaultBaseURL       = "http://localhost:3080"
	DefaultTimeout       = 10 * time.Second
	DefaultPollInterval  = 10 * time.Second
	DefaultRecordCommand = "arecord -q -t raw -f S16_LE -c 1 -r 16000"
)

// Settings are the user-editable values stored in config.yaml.
type Settings struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	RecordCommand string        `mapstructure:"record_command" yaml:"record_command"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		PollInterval:  DefaultPollInterval,
		RecordCommand: DefaultRecordCommand,
	}
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskboard or $HOME/.config/taskboard.
// Settings start at their defaults; call Load to read config.yaml.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, Settings: DefaultSettings()}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load reads config.yaml (if present) and TASKBOARD_* environment overrides
// on top of the defaults.
func (c *Config) Load() error {
	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("poll_interval", defaults.PollInterval)
	v.SetDefault("record_command", defaults.RecordCommand)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if c.HasSettings() {
		v.SetConfigFile(c.SettingsPath())
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	c.Settings = s
	return nil
}

// Set updates one setting by key and writes config.yaml.
func (c *Config) Set(key, value string) error {
	switch key {
	case "base_url":
		value = strings.TrimRight(strings.TrimSpace(value), "/")
		if value == "" {
			return errors.New("base_url cannot be empty")
		}
		c.BaseURL = value
	case "timeout", "poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		if key == "timeout" {
			c.Timeout = d
		} else {
			c.PollInterval = d
		}
	case "record_command":
		c.RecordCommand = strings.TrimSpace(value)
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return c.Save()
}

// Save writes the current settings to config.yaml with mode 0600.
func (c *Config) Save() error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(settingsFile{
		BaseURL:       c.BaseURL,
		Timeout:       c.Timeout.String(),
		PollInterval:  c.PollInterval.String(),
		RecordCommand: c.RecordCommand,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.SettingsPath(), data, 0600)
}

// settingsFile is the on-disk form; durations are kept human readable.
type settingsFile struct {
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	PollInterval  string `yaml:"poll_interval"`
	RecordCommand string `yaml:"record_command"`
}

// Logger returns a debug logger writing to errOut when Debug is set,
// and a discarding logger otherwise.
func (c *Config) Logger(errOut io.Writer) *slog.Logger {
	if !c.Debug || errOut == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSettings checks if config.yaml exists.
func (c *Config) HasSettings() bool {
	_, err := os.Stat(c.SettingsPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
