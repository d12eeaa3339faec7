package slideinfo

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/slideinfo/core"
)

// Compile-time interface check.
var _ io.Closer = (*Slide)(nil)

// Slide is an opened whole-slide container.
// Its level directory is parsed at open; queries never perform I/O.
//
// The caller must call Close when done to release the file handle.
// After Close, every query fails with a *StateError (ErrClosed).
type Slide struct {
	mu     sync.RWMutex
	closed bool

	path   string
	handle SlideHandle
	dir    *Directory
	logger *slog.Logger
}

func newSlide(path string, h SlideHandle, dir *Directory, logger *slog.Logger) *Slide {
	return &Slide{
		path:   path,
		handle: h,
		dir:    dir,
		logger: logger,
	}
}

// Path returns the path the slide was opened from.
func (s *Slide) Path() string {
	return s.path
}

// Close releases the file handle. Calling Close again is a no-op.
func (s *Slide) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.handle.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	s.logger.Debug("closed slide", "path", s.path)
	return nil
}

// directory returns the parsed directory, or a StateError once closed.
// Caller must hold s.mu.
func (s *Slide) directory(op string) (*Directory, error) {
	if s.closed {
		return nil, &core.StateError{Op: op}
	}
	return s.dir, nil
}

// Format returns the detected container format (e.g. "aperio").
func (s *Slide) Format() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("Format")
	if err != nil {
		return "", err
	}
	return dir.Format, nil
}

// LevelCount returns the number of pyramid levels (always at least 1).
func (s *Slide) LevelCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("LevelCount")
	if err != nil {
		return 0, err
	}
	return len(dir.Levels), nil
}

// LevelDimensions returns the width and height of a level.
// Level 0 is the full resolution.
func (s *Slide) LevelDimensions(level int) (width, height int64, err error) {
	l, err := s.level("LevelDimensions", level)
	if err != nil {
		return 0, 0, err
	}
	return l.Width, l.Height, nil
}

// Level returns the geometry of a level.
func (s *Slide) Level(level int) (LevelGeometry, error) {
	return s.level("Level", level)
}

func (s *Slide) level(op string, level int) (LevelGeometry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory(op)
	if err != nil {
		return LevelGeometry{}, err
	}
	if level < 0 || level >= len(dir.Levels) {
		return LevelGeometry{}, &core.IndexError{Index: level, Count: len(dir.Levels)}
	}
	return dir.Levels[level], nil
}

// Levels returns the geometry of every level, ordered by level index.
func (s *Slide) Levels() ([]LevelGeometry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("Levels")
	if err != nil {
		return nil, err
	}
	return slices.Clone(dir.Levels), nil
}

// BestLevelForDownsample returns the largest level whose downsample factor
// does not exceed downsample. Factors below level 0 select level 0.
func (s *Slide) BestLevelForDownsample(downsample float64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("BestLevelForDownsample")
	if err != nil {
		return 0, err
	}
	for i, l := range dir.Levels {
		if downsample < l.Downsample {
			return max(i-1, 0), nil
		}
	}
	return len(dir.Levels) - 1, nil
}

// AssociatedImages returns the auxiliary images of the container.
func (s *Slide) AssociatedImages() ([]AssociatedImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("AssociatedImages")
	if err != nil {
		return nil, err
	}
	return slices.Clone(dir.Associated), nil
}

// Properties returns a copy of the slide properties.
func (s *Slide) Properties() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("Properties")
	if err != nil {
		return nil, err
	}
	return maps.Clone(dir.Properties), nil
}

// Property returns a single property value.
func (s *Slide) Property(name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("Property")
	if err != nil {
		return "", false, err
	}
	v, ok := dir.Properties[name]
	return v, ok, nil
}

// Fingerprint returns a digest of the parsed directory: format, level and
// associated image geometry, and properties. Two files with the same
// directory have the same fingerprint regardless of pixel content.
func (s *Slide) Fingerprint() (digest.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir, err := s.directory("Fingerprint")
	if err != nil {
		return "", err
	}
	return fingerprint(dir), nil
}

func fingerprint(dir *Directory) digest.Digest {
	var b strings.Builder
	fmt.Fprintf(&b, "format %s\n", dir.Format)
	for _, l := range dir.Levels {
		fmt.Fprintf(&b, "level %d %dx%d tile %dx%d\n", l.Index, l.Width, l.Height, l.TileWidth, l.TileHeight)
	}
	for _, a := range dir.Associated {
		fmt.Fprintf(&b, "associated %q %dx%d\n", a.Name, a.Width, a.Height)
	}
	for _, k := range slices.Sorted(maps.Keys(dir.Properties)) {
		fmt.Fprintf(&b, "property %q=%q\n", k, dir.Properties[k])
	}
	return digest.FromString(b.String())
}
