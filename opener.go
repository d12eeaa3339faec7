package slideinfo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/container"
	"github.com/meigma/slideinfo/internal/source"
)

// Opener opens slide containers with a fixed configuration.
// An Opener holds no open resources and is safe for concurrent use.
type Opener struct {
	reader DirectoryReader
	logger *slog.Logger
	open   handleOpener

	validate     bool
	limits       DirectoryLimits
	compressions []Compression
	tempDir      string
	maxSpool     int64
	progress     ProgressCallback
}

// NewOpener creates an Opener.
//
// By default, Aperio SVS and generic tiled TIFF containers are recognized,
// gzip and zstd wrapped files are decompressed to a temp file, and pyramid
// validation is on.
func NewOpener(opts ...Option) (*Opener, error) {
	o := &Opener{
		logger:   slog.New(slog.DiscardHandler),
		open:     source.Open,
		validate: true,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	// Wire up default implementations
	if o.reader == nil {
		o.reader = container.NewReader(o.limits, o.logger)
	}
	if o.compressions == nil {
		o.compressions = core.DefaultCompressions()
	}

	return o, nil
}

// Open opens the slide at path.
//
// Open is equivalent to NewOpener(opts...) followed by Opener.Open.
func Open(path string, opts ...Option) (*Slide, error) {
	o, err := NewOpener(opts...)
	if err != nil {
		return nil, err
	}
	return o.Open(path)
}

// Open opens the slide at path and parses its level directory.
// No pixel data is read.
//
// Failures are returned as *OpenError; use errors.Is with ErrNotFound,
// ErrUnsupportedFormat or ErrCorruptDirectory to test the kind.
// The caller must call Slide.Close when done.
func (o *Opener) Open(path string) (*Slide, error) {
	start := time.Now()

	h, err := o.open(path, o.sourceOptions(path))
	if err != nil {
		return nil, core.NewOpenError(path, err)
	}

	dir, err := o.readDirectory(h)
	if err != nil {
		if closeErr := h.Close(); closeErr != nil {
			o.logger.Warn("failed to release slide handle", "path", path, "error", closeErr)
		}
		return nil, core.NewOpenError(path, err)
	}

	o.logger.Debug("opened slide",
		"path", path,
		"format", dir.Format,
		"levels", len(dir.Levels),
		"spooled", h.Spooled(),
		"elapsed", time.Since(start))

	return newSlide(path, h, dir, o.logger), nil
}

// readDirectory parses and checks the directory of h.
func (o *Opener) readDirectory(h SlideHandle) (*Directory, error) {
	dir, err := o.reader.ReadDirectory(h, h.Size())
	if err != nil {
		return nil, err
	}
	if err := normalize(dir); err != nil {
		return nil, err
	}
	if o.validate {
		if err := validatePyramid(dir.Levels); err != nil {
			return nil, err
		}
	}
	return dir, nil
}

func (o *Opener) sourceOptions(path string) source.Options {
	opts := source.Options{
		Compressions: o.compressions,
		TempDir:      o.tempDir,
		MaxSpoolSize: o.maxSpool,
		Logger:       o.logger,
	}
	if o.progress != nil {
		fn := o.progress
		opts.Progress = func(read, total int64) {
			fn(ProgressEvent{Path: path, BytesRead: read, TotalBytes: total})
		}
	}
	return opts
}

// normalize checks the invariants every directory must meet, whatever
// reader produced it, and assigns level indexes and downsamples.
func normalize(dir *Directory) error {
	if dir == nil || len(dir.Levels) == 0 {
		return fmt.Errorf("%w: no pyramid levels", core.ErrCorruptDirectory)
	}
	base := dir.Levels[0]
	for i := range dir.Levels {
		l := &dir.Levels[i]
		if l.Width < 1 || l.Height < 1 {
			return fmt.Errorf("%w: level %d has invalid size %dx%d", core.ErrCorruptDirectory, i, l.Width, l.Height)
		}
		l.Index = i
		l.Downsample = (float64(base.Width)/float64(l.Width) + float64(base.Height)/float64(l.Height)) / 2
	}
	if dir.Properties == nil {
		dir.Properties = make(map[string]string)
	}
	return nil
}

// validatePyramid checks that dimensions are non-increasing by level.
func validatePyramid(levels []LevelGeometry) error {
	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1], levels[i]
		if cur.Width > prev.Width || cur.Height > prev.Height {
			return fmt.Errorf("%w: level %d (%dx%d) is larger than level %d (%dx%d)",
				core.ErrCorruptDirectory, i, cur.Width, cur.Height, i-1, prev.Width, prev.Height)
		}
	}
	return nil
}
