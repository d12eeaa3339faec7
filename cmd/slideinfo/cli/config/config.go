package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the slideinfo CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Validate       bool   `mapstructure:"validate"`
	Output         string `mapstructure:"output"`
	Progress       string `mapstructure:"progress"`
	MaxDirectories int    `mapstructure:"max-directories"`
	TempDir        string `mapstructure:"temp-dir"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Validate:       true,
		Output:         "text",
		Progress:       "auto",
		MaxDirectories: 1024,
	}
}

// SetDefaults registers the built-in values with v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("validate", d.Validate)
	v.SetDefault("output", d.Output)
	v.SetDefault("progress", d.Progress)
	v.SetDefault("max-directories", d.MaxDirectories)
	v.SetDefault("temp-dir", d.TempDir)
}

// Load reads the effective configuration from v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.MaxDirectories < 0 {
		return Config{}, fmt.Errorf("max-directories must not be negative: %d", cfg.MaxDirectories)
	}
	return cfg, nil
}
