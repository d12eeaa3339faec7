// Package cli implements the slideinfo command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/slideinfo"
	"github.com/meigma/slideinfo/cmd/slideinfo/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "slideinfo",
	Short: "Inspect whole-slide image pyramids",
	Long: `Slideinfo reads the level directory of whole-slide image containers
(Aperio SVS, tiled TIFF and BigTIFF) without decoding any pixels.

Files wrapped in gzip or zstd are decompressed to a temporary file first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/slideinfo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().Bool("validate", true, "Reject pyramids whose levels grow in size")
	//nolint:errcheck // flag is defined above
	viper.BindPFlag("validate", rootCmd.PersistentFlags().Lookup("validate"))

	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "Inspection Commands:"})
	rootCmd.Version = version
}

// initConfig reads the config file and environment.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("SLIDEINFO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := config.Dir(); err == nil {
		viper.SetConfigFile(filepath.Join(dir, "config.yaml"))
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: ignoring config file: %v\n", err)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// newOpener creates a slide opener with configured options.
func newOpener(progress slideinfo.ProgressCallback) (*slideinfo.Opener, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	opts := []slideinfo.Option{
		slideinfo.WithPyramidValidation(cfg.Validate),
		slideinfo.WithLimits(slideinfo.DirectoryLimits{MaxDirectories: cfg.MaxDirectories}),
		slideinfo.WithTempDir(cfg.TempDir),
	}
	if progress != nil {
		opts = append(opts, slideinfo.WithProgress(progress))
	}
	if verbose {
		opts = append(opts, slideinfo.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}
	return slideinfo.NewOpener(opts...)
}

// openSlide opens path with the configured options, showing a progress bar
// while compressed slides are decompressed.
func openSlide(path string) (*slideinfo.Slide, error) {
	progress, finish := newSpoolProgress()
	defer finish()

	opener, err := newOpener(progress)
	if err != nil {
		return nil, err
	}
	return opener.Open(path)
}

// formatError converts slideinfo errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	var openErr *slideinfo.OpenError
	switch {
	case errors.As(err, &openErr) && openErr.Kind == slideinfo.OpenNotFound:
		return fmt.Sprintf("Error: no such slide: %s", openErr.Path)
	case errors.Is(err, slideinfo.ErrUnsupportedFormat):
		return fmt.Sprintf("Error: unsupported format: %v", err)
	case errors.Is(err, slideinfo.ErrCorruptDirectory):
		return fmt.Sprintf("Error: corrupt slide directory: %v", err)
	case errors.Is(err, slideinfo.ErrOutOfRange):
		return fmt.Sprintf("Error: invalid level: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
