// Package progress reports how far a sequential read has advanced.
package progress

import (
	"errors"
	"io"
)

// Callback is called with the cumulative bytes read and the expected total.
type Callback func(bytesRead, totalBytes int64)

// DefaultStep is the minimum number of bytes between two callbacks.
const DefaultStep = 64 * 1024

// Reader wraps an io.Reader and reports progress at most once per step,
// plus once when the underlying reader reaches EOF.
type Reader struct {
	reader   io.Reader
	callback Callback
	total    int64
	step     int64

	read     int64
	reported int64
}

// NewReader creates a progress-tracking reader with DefaultStep.
// The total parameter should be the expected size (-1 if unknown).
func NewReader(r io.Reader, total int64, callback Callback) *Reader {
	return NewReaderStep(r, total, DefaultStep, callback)
}

// NewReaderStep is NewReader with an explicit reporting step.
// A step <= 0 reports after every read.
func NewReaderStep(r io.Reader, total, step int64, callback Callback) *Reader {
	return &Reader{
		reader:   r,
		callback: callback,
		total:    total,
		step:     step,
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	r.read += int64(n)
	if r.callback == nil {
		return n, err
	}
	if n > 0 && r.read-r.reported >= r.step {
		r.report()
	}
	if errors.Is(err, io.EOF) && r.reported != r.read {
		r.report()
	}
	return n, err
}

func (r *Reader) report() {
	r.reported = r.read
	r.callback(r.read, r.total)
}

// Flush reports the current count if it has not been reported yet.
func (r *Reader) Flush() {
	if r.callback != nil && r.reported != r.read {
		r.report()
	}
}

// BytesRead returns the cumulative bytes read so far.
func (r *Reader) BytesRead() int64 {
	return r.read
}

// Close closes the underlying reader if it implements io.Closer.
func (r *Reader) Close() error {
	if closer, ok := r.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
