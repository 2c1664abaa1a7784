package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/arcanaland/cardwall/internal/layout"
	"github.com/arcanaland/cardwall/internal/sheet"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CARDWALL_"

// Config represents the application configuration
type Config struct {
	SourceURL        string `toml:"source_url" env:"SOURCE_URL"`
	DurationMS       int    `toml:"duration_ms" env:"DURATION_MS"`
	FrameRate        int    `toml:"frame_rate" env:"FRAME_RATE"`
	Listen           string `toml:"listen" env:"LISTEN"`
	StartArrangement string `toml:"start_arrangement" env:"START_ARRANGEMENT"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		SourceURL:        sheet.DefaultSourceURL,
		DurationMS:       2000,
		FrameRate:        60,
		Listen:           ":8080",
		StartArrangement: string(layout.TableArrangement),
	}
}

// Duration returns the base transition duration
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// Arrangement returns the parsed start arrangement
func (c *Config) Arrangement() (layout.Arrangement, error) {
	return layout.ParseArrangement(c.StartArrangement)
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if c.SourceURL == "" {
		errs = append(errs, errors.New("source_url is required"))
	}
	if c.DurationMS <= 0 {
		errs = append(errs, fmt.Errorf("duration_ms must be positive, got %d", c.DurationMS))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate))
	}
	if _, err := c.Arrangement(); err != nil {
		errs = append(errs, fmt.Errorf("start_arrangement: %w", err))
	}
	return errors.Join(errs...)
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "cardwall", "config.toml")
}

// GetCacheDir returns the directory for cached photo art
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), "cardwall")
}

// Load reads the config file at path, creating it with defaults when it
// does not exist, then applies CARDWALL_* environment overrides
func Load(path string) (*Config, error) {
	var config *Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config, err = createDefaultConfig(path)
		if err != nil {
			return nil, err
		}
	} else {
		config = Default()
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overlays environment variables onto config
func ApplyEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes config to path as TOML
func Save(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) (*Config, error) {
	config := Default()
	if err := Save(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// SetStartArrangement stores the arrangement shown when the wall starts
func SetStartArrangement(path, name string) error {
	arrangement, err := layout.ParseArrangement(name)
	if err != nil {
		return err
	}

	config := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return fmt.Errorf("error decoding config file: %w", err)
		}
	}

	config.StartArrangement = string(arrangement)
	return Save(path, config)
}
