package slideinfo

import "github.com/meigma/slideinfo/core"

// Sentinel errors for common failure conditions.
// Re-exported from core package.
var (
	// ErrNotFound indicates the slide path does not exist.
	ErrNotFound = core.ErrNotFound

	// ErrUnsupportedFormat indicates the file is not a recognized pyramidal container.
	ErrUnsupportedFormat = core.ErrUnsupportedFormat

	// ErrCorruptDirectory indicates the level directory could not be parsed consistently.
	ErrCorruptDirectory = core.ErrCorruptDirectory

	// ErrOutOfRange indicates a level index outside [0, level count).
	ErrOutOfRange = core.ErrOutOfRange

	// ErrClosed indicates an operation was attempted on a closed slide.
	ErrClosed = core.ErrClosed
)

// Typed errors. Each matches its sentinel through errors.Is.
// Re-exported from core package.
type (
	// OpenError is returned by Open.
	OpenError = core.OpenError
	// OpenErrorKind classifies an OpenError.
	OpenErrorKind = core.OpenErrorKind
	// IndexError is returned for level indexes out of range.
	IndexError = core.IndexError
	// StateError is returned by queries on a closed slide.
	StateError = core.StateError
)

// Open error kinds.
const (
	OpenNotFound          = core.OpenNotFound
	OpenUnsupportedFormat = core.OpenUnsupportedFormat
	OpenCorruptDirectory  = core.OpenCorruptDirectory
	OpenIO                = core.OpenIO
)
