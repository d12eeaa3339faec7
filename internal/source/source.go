// Package source opens slide files and owns their handles.
//
// Plain files are read in place. Files wrapped in a whole-file compression
// (gzip, zstd) are decompressed once into a temp file so the directory
// parser gets random access; the temp file lives as long as the handle.
package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/progress"
)

// Options configures Open.
type Options struct {
	// Compressions lists the recognized wrappers. Nil selects core.DefaultCompressions.
	Compressions []core.Compression
	// TempDir is where spool files are created ("" = os.TempDir).
	TempDir string
	// Progress receives spool progress (may be nil).
	Progress progress.Callback
	// Logger receives debug messages (nil = discard).
	Logger *slog.Logger
	// MaxSpoolSize caps the decompressed size of a wrapped slide (0 = DefaultMaxSpoolSize).
	MaxSpoolSize int64
}

// DefaultMaxSpoolSize is the decompressed size cap used when none is set.
const DefaultMaxSpoolSize int64 = 64 << 30

const sniffSize = 8

// Open opens the slide at path.
//
// Errors wrap core.ErrNotFound when the path does not exist (including a
// path below a regular file) and core.ErrUnsupportedFormat when it is a
// directory, a damaged wrapper or decompresses past MaxSpoolSize.
func Open(path string, opts Options) (core.SlideHandle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	compressions := opts.Compressions
	if compressions == nil {
		compressions = core.DefaultCompressions()
	}

	info, err := os.Stat(path)
	if err != nil {
		if missing(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", core.ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if missing(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return nil, err
	}

	header := make([]byte, sniffSize)
	n, err := f.ReadAt(header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = header[:n]

	for _, c := range compressions {
		if !c.Match(header) {
			continue
		}
		//nolint:gosec // G115: file sizes are non-negative
		logger.Debug("spooling compressed slide", "path", path, "compression", c.Name(), "size", humanize.IBytes(uint64(info.Size())))
		h, err := spool(f, info.Size(), c, opts, logger)
		f.Close()
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	return &fileHandle{file: f, size: info.Size()}, nil
}

// missing reports whether err means no file exists at the path.
func missing(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// spool decompresses src into a temp file of at most opts.MaxSpoolSize bytes.
func spool(src *os.File, srcSize int64, c core.Compression, opts Options, logger *slog.Logger) (*spoolHandle, error) {
	pr := progress.NewReader(io.NewSectionReader(src, 0, srcSize), srcSize, opts.Progress)
	defer pr.Flush()

	zr, err := c.NewReader(pr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s wrapper: %v", core.ErrUnsupportedFormat, c.Name(), err)
	}
	defer zr.Close()

	tmp, err := os.CreateTemp(opts.TempDir, "slideinfo-spool-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	limit := opts.MaxSpoolSize
	if limit <= 0 {
		limit = DefaultMaxSpoolSize
	}
	written, err := io.Copy(tmp, io.LimitReader(zr, limit+1))
	if err == nil && written > limit {
		//nolint:gosec // G115: limit is positive
		err = fmt.Errorf("exceeds %s", humanize.IBytes(uint64(limit)))
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: decompress %s: %v", core.ErrUnsupportedFormat, c.Name(), err)
	}

	//nolint:gosec // G115: io.Copy never returns a negative count
	logger.Debug("spooled slide", "path", tmpPath, "size", humanize.IBytes(uint64(written)))
	return &spoolHandle{
		fileHandle: fileHandle{file: tmp, size: written},
		logger:     logger,
	}, nil
}
