// Package core provides the shared types and interfaces for slideinfo.
//
// This package exists to break import cycles between the root slideinfo package
// and internal implementation packages. The slideinfo package re-exports all
// public types from this package, so external users should import slideinfo
// directly, not slideinfo/core.
package core

import (
	"errors"
	"io"
)

// Sentinel errors for common failure conditions.
var (
	// ErrNotFound indicates the slide path does not exist.
	ErrNotFound = errors.New("slideinfo: not found")

	// ErrUnsupportedFormat indicates the file is not a recognized pyramidal container.
	ErrUnsupportedFormat = errors.New("slideinfo: unsupported format")

	// ErrCorruptDirectory indicates the level directory could not be parsed consistently.
	ErrCorruptDirectory = errors.New("slideinfo: corrupt directory")

	// ErrOutOfRange indicates a level index outside [0, level count).
	ErrOutOfRange = errors.New("slideinfo: level index out of range")

	// ErrClosed indicates an operation was attempted on a closed slide.
	ErrClosed = errors.New("slideinfo: slide closed")
)

// LevelGeometry describes one pyramid level. Level 0 is the full resolution.
type LevelGeometry struct {
	Index  int
	Width  int64
	Height int64

	// TileWidth and TileHeight are the tile size of the level in pixels.
	TileWidth  int64
	TileHeight int64

	// Downsample is the mean of the width and height ratios against level 0.
	Downsample float64
}

// Dimensions returns the width and height of the level.
func (l LevelGeometry) Dimensions() (width, height int64) {
	return l.Width, l.Height
}

// AssociatedImage describes a non-pyramid image stored in the container,
// such as the slide label or macro photograph.
type AssociatedImage struct {
	Name   string
	Width  int64
	Height int64
}

// Directory is the parsed level directory of a slide container.
type Directory struct {
	// Format is the detected container format (e.g. "aperio", "generic-tiff").
	Format string
	// Levels is ordered by non-increasing size; Levels[i].Index == i.
	Levels []LevelGeometry
	// Associated lists auxiliary images in file order.
	Associated []AssociatedImage
	// Properties holds vendor and TIFF metadata as flat key/value pairs.
	Properties map[string]string
}

// DirectoryReader parses the level directory of a slide container.
// This interface is implemented by internal/container.
//
// Implementations must not read pixel data. Returned errors wrap
// ErrUnsupportedFormat when the bytes are not a recognized container and
// ErrCorruptDirectory when they are but the directory is inconsistent.
type DirectoryReader interface {
	// ReadDirectory parses the directory from random-access bytes.
	// The size parameter is the total container size in bytes.
	ReadDirectory(r io.ReaderAt, size int64) (*Directory, error)
}

// SlideHandle provides random access to the bytes of an opened slide.
// This interface is implemented by internal/source.
type SlideHandle interface {
	io.ReaderAt
	io.Closer
	// Size returns the total container size in bytes.
	Size() int64
	// Spooled reports whether the bytes were decompressed into a temp file.
	Spooled() bool
}

// DirectoryLimits bounds the work done while parsing a directory.
type DirectoryLimits struct {
	MaxDirectories int   // Maximum number of image file directories (0 = default)
	MaxEntries     int   // Maximum entries per directory (0 = default)
	MaxValueLength int64 // Maximum length of a single ASCII value (0 = default)
}
