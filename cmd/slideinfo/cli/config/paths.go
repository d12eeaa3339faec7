// Package config provides configuration management for the slideinfo CLI.
package config

import (
	"os"
	"path/filepath"
)

// Dir returns the slideinfo config directory.
// Uses XDG_CONFIG_HOME/slideinfo, defaulting to ~/.config/slideinfo.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "slideinfo"), nil
}

// File returns the default config file path.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
