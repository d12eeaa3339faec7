package slideinfo

import (
	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/source"
)

// handleOpener acquires the handle of a slide path.
// This is implemented by source.Open; tests substitute it.
type handleOpener func(path string, opts source.Options) (core.SlideHandle, error)
