package container

import (
	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/tiff"
)

// genericTIFF reads any TIFF with tiled directories. Every tiled directory
// is a level; stripped directories are ignored.
type genericTIFF struct{}

func (genericTIFF) name() string { return "generic-tiff" }

func (genericTIFF) detect(_ *tiff.File, dirs []directory) bool {
	for _, d := range dirs {
		if d.tiled() {
			return true
		}
	}
	return false
}

func (genericTIFF) build(f *tiff.File, dirs []directory) (*core.Directory, error) {
	d := &core.Directory{
		Format:     "generic-tiff",
		Properties: make(map[string]string),
	}
	for _, dir := range dirs {
		if dir.tiled() {
			d.Levels = append(d.Levels, level(dir))
		}
	}
	resolutionMPP(f, d.Properties)
	return d, nil
}
