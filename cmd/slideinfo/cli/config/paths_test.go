package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		dir, err := Dir()
		require.NoError(t, err)
		assert.Equal(t, "/custom/config/slideinfo", dir)

		file, err := File()
		require.NoError(t, err)
		assert.Equal(t, "/custom/config/slideinfo/config.yaml", file)
	})

	t.Run("defaults to ~/.config when XDG_CONFIG_HOME not set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		home, err := os.UserHomeDir()
		require.NoError(t, err)

		dir, err := Dir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "slideinfo"), dir)
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, Defaults(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("validate: false\noutput: json\nmax-directories: 16\n"), 0o600))

		v := viper.New()
		SetDefaults(v)
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.False(t, cfg.Validate)
		assert.Equal(t, "json", cfg.Output)
		assert.Equal(t, 16, cfg.MaxDirectories)
		assert.Equal(t, "auto", cfg.Progress)
	})

	t.Run("negative limit", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("max-directories", -1)

		_, err := Load(v)
		assert.Error(t, err)
	})
}
