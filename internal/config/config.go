// Package config loads trakr settings from the YAML config file, a .env
// file and TRAKR_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configDir      = "trakr"
	configFileName = "config.yml"
	envPrefix      = "TRAKR"
)

const (
	keyDatabasePath    = "database.path"
	keyLogFile         = "log.file"
	keyLogLevel        = "log.level"
	keyLogMaxSizeMB    = "log.max_size_mb"
	keyLogMaxBackups   = "log.max_backups"
	keyServerAddr      = "server.addr"
	keyStopOnExit      = "server.stop_on_exit"
	keyDisplayTimezone = "display.timezone"
)

type (
	// Config holds all configuration settings
	Config struct {
		Database DatabaseConfig `mapstructure:"database"`
		Log      LogConfig      `mapstructure:"log"`
		Server   ServerConfig   `mapstructure:"server"`
		Display  DisplayConfig  `mapstructure:"display"`

		// Path is the config file the settings were read from
		Path string `mapstructure:"-"`
	}

	// DatabaseConfig holds storage settings
	DatabaseConfig struct {
		Path string `mapstructure:"path"`
	}

	// LogConfig holds log file settings
	LogConfig struct {
		File       string `mapstructure:"file"`
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	}

	// ServerConfig holds settings for `trakr serve`
	ServerConfig struct {
		Addr       string `mapstructure:"addr"`
		StopOnExit bool   `mapstructure:"stop_on_exit"`
	}

	// DisplayConfig holds presentation settings
	DisplayConfig struct {
		// Timezone is an IANA name, "Local" or "UTC"
		Timezone string `mapstructure:"timezone"`
	}
)

// Load reads the config file at path, or the default XDG location when
// path is empty. A missing file is created with the default settings.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		var err error
		path, err = xdg.ConfigFile(filepath.Join(configDir, configFileName))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file failed: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := v.WriteConfig(); err != nil {
			return nil, fmt.Errorf("writing default config failed: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config failed: %w", err)
	}
	c.Path = path

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyDatabasePath, filepath.Join(xdg.DataHome, configDir, "trakr.db"))
	v.SetDefault(keyLogFile, filepath.Join(xdg.StateHome, configDir, "trakr.log"))
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSizeMB, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyServerAddr, "127.0.0.1:7420")
	v.SetDefault(keyStopOnExit, true)
	v.SetDefault(keyDisplayTimezone, "Local")
}

// Validate checks values that cannot be caught while decoding.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%s must not be empty", keyDatabasePath)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.Display.Location(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured level name (debug, info, warn, error).
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", keyLogLevel, l.Level, err)
	}
	return level, nil
}

// Location resolves the display timezone.
func (d DisplayConfig) Location() (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(d.Timezone)) {
	case "", "local":
		return time.Local, nil
	case "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", keyDisplayTimezone, d.Timezone, err)
	}
	return loc, nil
}
