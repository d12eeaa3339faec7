package core

import (
	"errors"
	"fmt"
)

// OpenErrorKind classifies why a slide could not be opened.
type OpenErrorKind int

const (
	// OpenNotFound means the path does not exist.
	OpenNotFound OpenErrorKind = iota + 1
	// OpenUnsupportedFormat means the file is not a recognized container.
	OpenUnsupportedFormat
	// OpenCorruptDirectory means the level directory is inconsistent.
	OpenCorruptDirectory
	// OpenIO means the file exists but could not be read.
	OpenIO
)

// String returns the kind name.
func (k OpenErrorKind) String() string {
	switch k {
	case OpenNotFound:
		return "not found"
	case OpenUnsupportedFormat:
		return "unsupported format"
	case OpenCorruptDirectory:
		return "corrupt directory"
	case OpenIO:
		return "i/o error"
	default:
		return fmt.Sprintf("OpenErrorKind(%d)", int(k))
	}
}

// OpenError is returned when a slide cannot be opened.
type OpenError struct {
	Path string
	Kind OpenErrorKind
	Err  error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("open %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error that corresponds to the kind.
func (e *OpenError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == OpenNotFound
	case ErrUnsupportedFormat:
		return e.Kind == OpenUnsupportedFormat
	case ErrCorruptDirectory:
		return e.Kind == OpenCorruptDirectory
	}
	return false
}

// NewOpenError classifies err into an OpenError for path.
// Errors that wrap none of the open sentinels are reported as OpenIO.
func NewOpenError(path string, err error) *OpenError {
	var oe *OpenError
	if errors.As(err, &oe) {
		return oe
	}

	kind := OpenIO
	switch {
	case errors.Is(err, ErrNotFound):
		kind = OpenNotFound
	case errors.Is(err, ErrUnsupportedFormat):
		kind = OpenUnsupportedFormat
	case errors.Is(err, ErrCorruptDirectory):
		kind = OpenCorruptDirectory
	}
	return &OpenError{Path: path, Kind: kind, Err: err}
}

// IndexError is returned when a level index is outside [0, Count).
type IndexError struct {
	Index int
	Count int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: level %d not in [0, %d)", ErrOutOfRange, e.Index, e.Count)
}

// Is reports whether target is ErrOutOfRange.
func (e *IndexError) Is(target error) bool {
	return target == ErrOutOfRange
}

// StateError is returned when an operation is attempted on a closed slide.
type StateError struct {
	Op string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrClosed)
}

// Is reports whether target is ErrClosed.
func (e *StateError) Is(target error) bool {
	return target == ErrClosed
}
