package slideinfo

import "github.com/meigma/slideinfo/core"

// Compression recognizes a whole-file wrapper around a container
// (e.g. "slide.svs.gz") and decompresses it.
//
// Use GzipCompression or ZstdCompression for built-in implementations.
type Compression = core.Compression

// GzipCompression returns the gzip wrapper.
func GzipCompression() Compression {
	return core.GzipCompression()
}

// ZstdCompression returns the zstd wrapper.
func ZstdCompression() Compression {
	return core.ZstdCompression()
}
