package config

import (
	"strings"
	"time"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "serialgreet.toml"

// Overrides holds command line values; nil fields were not given.
type Overrides struct {
	Device      *string
	Baud        *int
	Interval    *time.Duration
	ReadTimeout *time.Duration
	Pattern     *string
	MetricsAddr *string
	LogLevel    *string
}

func (c *Config) Apply(o Overrides) {
	if o.Device != nil {
		c.Device = strings.TrimSpace(*o.Device)
	}
	if o.Baud != nil {
		c.Baud = *o.Baud
	}
	if o.Interval != nil {
		c.Interval = *o.Interval
	}
	if o.ReadTimeout != nil {
		c.ReadTimeout = *o.ReadTimeout
	}
	if o.Pattern != nil {
		c.Pattern = strings.ToLower(strings.TrimSpace(*o.Pattern))
	}
	if o.MetricsAddr != nil {
		c.MetricsAddr = strings.TrimSpace(*o.MetricsAddr)
	}
	if o.LogLevel != nil {
		c.LogLevel = strings.TrimSpace(*o.LogLevel)
	}
}

// Resolve layers defaults, the config file, envFile, the environment and o,
// then validates. path falls back to DefaultFile when that file exists.
func Resolve(path, envFile string, o Overrides) (Config, error) {
	if envFile != "" {
		if err := LoadDotEnv(envFile); err != nil {
			return Config{}, err
		}
	}
	if path == "" && Exists(DefaultFile) {
		path = DefaultFile
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	cfg.Apply(o)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
