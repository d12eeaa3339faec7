package container

import (
	"fmt"
	"image"
	"io"

	// Registered for DecodeConfig so non-pyramidal images are named in errors.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/meigma/slideinfo/core"
)

// describeUnsupported builds the ErrUnsupportedFormat error for non-TIFF input.
func describeUnsupported(ra io.ReaderAt, size int64) error {
	if size == 0 {
		return fmt.Errorf("%w: empty file", core.ErrUnsupportedFormat)
	}

	cfg, name, err := image.DecodeConfig(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return fmt.Errorf("%w: unrecognized file signature", core.ErrUnsupportedFormat)
	}
	return fmt.Errorf("%w: %s image (%dx%d) is not a pyramidal container",
		core.ErrUnsupportedFormat, name, cfg.Width, cfg.Height)
}
