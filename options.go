package slideinfo

import (
	"errors"
	"log/slog"
)

// Option configures an Opener.
type Option func(*Opener) error

// WithLogger sets a logger for the opener. By default, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithDirectoryReader replaces the directory parser.
// The reader must wrap ErrUnsupportedFormat or ErrCorruptDirectory in its errors
// for Open to classify them.
func WithDirectoryReader(r DirectoryReader) Option {
	return func(o *Opener) error {
		if r == nil {
			return errors.New("directory reader must not be nil")
		}
		o.reader = r
		return nil
	}
}

// WithPyramidValidation sets whether Open checks that level dimensions never
// grow as the level index increases. Violations fail Open with
// ErrCorruptDirectory. Validation is on by default.
func WithPyramidValidation(enabled bool) Option {
	return func(o *Opener) error {
		o.validate = enabled
		return nil
	}
}

// WithLimits sets the directory parsing limits of the default reader.
// It has no effect when WithDirectoryReader is also given.
func WithLimits(limits DirectoryLimits) Option {
	return func(o *Opener) error {
		if limits.MaxDirectories < 0 || limits.MaxEntries < 0 || limits.MaxValueLength < 0 {
			return errors.New("limits must not be negative")
		}
		o.limits = limits
		return nil
	}
}

// WithCompressions sets the recognized whole-file wrappers.
// An empty list disables decompression; files are then parsed as-is.
func WithCompressions(c ...Compression) Option {
	return func(o *Opener) error {
		o.compressions = append([]Compression{}, c...)
		return nil
	}
}

// WithTempDir sets the directory used to spool decompressed containers.
func WithTempDir(dir string) Option {
	return func(o *Opener) error {
		o.tempDir = dir
		return nil
	}
}

// WithMaxSpoolSize caps the decompressed size of gzip or zstd wrapped
// containers. Zero selects a 64 GiB cap.
func WithMaxSpoolSize(n int64) Option {
	return func(o *Opener) error {
		if n < 0 {
			return errors.New("max spool size must not be negative")
		}
		o.maxSpool = n
		return nil
	}
}

// WithProgress sets a callback for decompression progress.
func WithProgress(fn ProgressCallback) Option {
	return func(o *Opener) error {
		o.progress = fn
		return nil
	}
}
