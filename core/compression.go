package core

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression recognizes and decompresses a whole-file wrapper around a
// slide container (e.g. an archived "slide.svs.gz").
type Compression interface {
	// Name returns the short name of the wrapper ("gzip", "zstd").
	Name() string
	// Match reports whether header starts with the wrapper's magic bytes.
	Match(header []byte) bool
	// NewReader returns a decompressing reader over r.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// gzipCompression implements Compression for gzip.
type gzipCompression struct{}

// GzipCompression returns the gzip wrapper.
func GzipCompression() Compression {
	return gzipCompression{}
}

func (gzipCompression) Name() string { return "gzip" }

func (gzipCompression) Match(header []byte) bool {
	return bytes.HasPrefix(header, []byte{0x1f, 0x8b})
}

func (gzipCompression) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr, nil
}

// zstdCompression implements Compression for zstd.
type zstdCompression struct{}

// ZstdCompression returns the zstd wrapper.
func ZstdCompression() Compression {
	return zstdCompression{}
}

func (zstdCompression) Name() string { return "zstd" }

func (zstdCompression) Match(header []byte) bool {
	return bytes.HasPrefix(header, []byte{0x28, 0xb5, 0x2f, 0xfd})
}

func (zstdCompression) NewReader(r io.Reader) (io.ReadCloser, error) {
	// Synchronous decoding keeps reads of r on the calling goroutine.
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// DefaultCompressions returns the wrappers recognized by default.
func DefaultCompressions() []Compression {
	return []Compression{GzipCompression(), ZstdCompression()}
}
