package source

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/meigma/slideinfo/core"
)

// Compile-time interface checks.
var (
	_ core.SlideHandle = (*fileHandle)(nil)
	_ core.SlideHandle = (*spoolHandle)(nil)
)

// fileHandle implements core.SlideHandle for a slide read in place.
type fileHandle struct {
	file *os.File
	size int64
}

// ReadAt implements io.ReaderAt.
func (h *fileHandle) ReadAt(p []byte, off int64) (n int, err error) {
	return h.file.ReadAt(p, off)
}

// Close implements io.Closer.
func (h *fileHandle) Close() error {
	return h.file.Close()
}

// Size returns the total slide size.
func (h *fileHandle) Size() int64 {
	return h.size
}

// Spooled reports false: the slide is read from its own file.
func (h *fileHandle) Spooled() bool {
	return false
}

// spoolHandle implements core.SlideHandle for a decompressed temp copy.
// The temp file is removed on Close.
type spoolHandle struct {
	fileHandle
	logger *slog.Logger

	once     sync.Once
	closeErr error
}

// Close closes and removes the temp file.
func (h *spoolHandle) Close() error {
	h.once.Do(func() {
		path := h.file.Name()
		h.closeErr = h.file.Close()
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("failed to remove spool file", "path", path, "error", err)
		}
	})
	return h.closeErr
}

// Spooled reports true.
func (h *spoolHandle) Spooled() bool {
	return true
}

// Path returns the temp file location.
func (h *spoolHandle) Path() string {
	return h.file.Name()
}
