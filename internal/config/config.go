// Package config loads the pushcoach service configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	Filter  FilterConfig  `mapstructure:"filter"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

// DBConfig configures the profile database.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig selects the analysis behavior.
type SessionConfig struct {
	// Profile is the name of the strictness profile to analyze with.
	Profile string `mapstructure:"profile"`
	// MinVisibility overrides the profile's keypoint confidence gate when
	// positive. Zero keeps the profile's own threshold.
	MinVisibility float64 `mapstructure:"min_visibility"`
}

// FilterConfig parameterizes One Euro keypoint smoothing.
type FilterConfig struct {
	Freq      float64 `mapstructure:"freq"`
	MinCutoff float64 `mapstructure:"min_cutoff"`
	Beta      float64 `mapstructure:"beta"`
	DCutoff   float64 `mapstructure:"d_cutoff"`
}

// Load reads the configuration from a YAML file, applying defaults for
// unset keys. An empty path loads defaults only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with every key at its default value.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults alone cannot fail to unmarshal.
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")

	v.SetDefault("db.path", "pushcoach.db")

	v.SetDefault("session.profile", "lenient")
	v.SetDefault("session.min_visibility", 0.0)

	v.SetDefault("filter.freq", 60.0)
	v.SetDefault("filter.min_cutoff", 1.0)
	v.SetDefault("filter.beta", 0.1)
	v.SetDefault("filter.d_cutoff", 1.0)
}
