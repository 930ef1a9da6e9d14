// Package config loads the application configuration from YAML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tesoreria/internal/treasury"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30m" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// RateLimit configures per-client API throttling.
type RateLimit struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// Redis configures the optional Redis connection used for rate-limit
// stats. Disabled when Addr is empty.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the full application configuration.
type Config struct {
	DBPath       string    `yaml:"db_path"`
	Listen       string    `yaml:"listen"`
	APIToken     string    `yaml:"api_token"`
	RulesDir     string    `yaml:"rules_dir"`
	HorizonDays  int       `yaml:"horizon_days"`
	ScanInterval Duration  `yaml:"scan_interval"`
	RateLimit    RateLimit `yaml:"rate_limit"`
	Redis        Redis     `yaml:"redis"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DBPath:       "tesoreria.db",
		Listen:       ":8080",
		HorizonDays:  90,
		ScanInterval: Duration(time.Hour),
		RateLimit:    RateLimit{Enabled: true, RPS: 20, Burst: 40},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return treasury.ValidationError{Field: "db_path", Message: "required"}
	}
	if c.Listen == "" {
		return treasury.ValidationError{Field: "listen", Message: "required"}
	}
	if c.HorizonDays < 1 || c.HorizonDays > 3650 {
		return treasury.ValidationError{Field: "horizon_days", Message: "must be 1..3650"}
	}
	if c.ScanInterval.Std() < time.Minute {
		return treasury.ValidationError{Field: "scan_interval", Message: "must be at least 1m"}
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return treasury.ValidationError{Field: "rate_limit.rps", Message: "must be positive"}
		}
		if c.RateLimit.Burst < 1 {
			return treasury.ValidationError{Field: "rate_limit.burst", Message: "must be at least 1"}
		}
	}
	return nil
}
