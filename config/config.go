// Package config resolves the greeter settings from defaults, an optional
// TOML file and SERIALGREET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"serialgreet/message"
	"serialgreet/serialcomm"
)

const EnvPrefix = "SERIALGREET"

var validate = validator.New()

type Config struct {
	Device      string        `envconfig:"DEVICE" validate:"required"`
	Baud        int           `envconfig:"BAUD" validate:"min=1"`
	Interval    time.Duration `envconfig:"INTERVAL" validate:"gt=0"`
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" validate:"gt=0"`
	Pattern     string        `envconfig:"PATTERN" validate:"oneof=invisibles colors"`
	MetricsAddr string        `envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	LogLevel    string        `envconfig:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
}

type fileConfig struct {
	Device      string `toml:"device"`
	Baud        int    `toml:"baud"`
	Interval    string `toml:"interval"`
	ReadTimeout string `toml:"read_timeout"`
	Pattern     string `toml:"pattern"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Device:      serialcomm.DefaultDevice,
		Baud:        serialcomm.DefaultBaud,
		Interval:    500 * time.Millisecond,
		ReadTimeout: 500 * time.Millisecond,
		Pattern:     message.PatternInvisibles,
		LogLevel:    "info",
	}
}

// Load returns Default overlaid with the file at path (skipped when path is
// empty) and then the environment. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	// envconfig also falls back to the unprefixed names (LOG_LEVEL, ...),
	// which other tools tend to set in upper case.
	cfg.Pattern = strings.ToLower(strings.TrimSpace(cfg.Pattern))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func overlayFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Interval))
		if err != nil {
			return fmt.Errorf("parse interval: %w", err)
		}
		cfg.Interval = d
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("pattern") {
		cfg.Pattern = strings.ToLower(strings.TrimSpace(raw.Pattern))
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Serial returns the channel settings for c.
func (c Config) Serial() serialcomm.SerialConfig {
	return serialcomm.SerialConfig{
		PortName:    c.Device,
		BaudRate:    c.Baud,
		ReadTimeout: c.ReadTimeout,
	}
}

// Exists reports whether path names a readable file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
