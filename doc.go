// Package slideinfo reads the level directory of whole-slide pyramidal
// images (Aperio SVS and generic tiled TIFF, classic or BigTIFF) without
// decoding pixel data.
//
// # Basic Usage
//
// Open a slide, query the full-resolution dimensions, and close it:
//
//	slide, err := slideinfo.Open("input.svs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer slide.Close()
//
//	width, height, err := slide.LevelDimensions(0)
//
// # Errors
//
// Open returns *OpenError, matching ErrNotFound, ErrUnsupportedFormat or
// ErrCorruptDirectory with errors.Is. Queries return *IndexError
// (ErrOutOfRange) for bad level indexes and *StateError (ErrClosed) once the
// slide is closed.
//
// # Compressed containers
//
// Files wrapped in gzip or zstd (e.g. "slide.svs.gz") are decompressed into a
// temp file at open time and removed on Close:
//
//	slide, err := slideinfo.Open("slide.svs.zst",
//	    slideinfo.WithTempDir("/scratch"),
//	    slideinfo.WithProgress(func(e slideinfo.ProgressEvent) { ... }))
//
// # Custom formats
//
// The directory parser is pluggable through WithDirectoryReader.
package slideinfo
