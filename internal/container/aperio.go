package container

import (
	"strings"

	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/tiff"
)

// aperio reads Aperio SVS slides.
//
// Tiled directories are pyramid levels. Stripped directories are associated
// images: the one at position 1 is the thumbnail, the others are named by the
// second line of their description. Stripped directories whose description
// has no second line are named by position: the second-to-last directory is
// the label and the last is the macro.
type aperio struct{}

func (aperio) name() string { return "aperio" }

func (aperio) detect(_ *tiff.File, dirs []directory) bool {
	return strings.HasPrefix(dirs[0].description, "Aperio")
}

func (aperio) build(_ *tiff.File, dirs []directory) (*core.Directory, error) {
	d := &core.Directory{
		Format:     "aperio",
		Properties: aperioProperties(dirs[0].description),
	}

	seen := make(map[string]bool)
	for _, dir := range dirs {
		if dir.tiled() {
			d.Levels = append(d.Levels, level(dir))
			continue
		}
		name := aperioAssociatedName(dir, len(dirs))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		d.Associated = append(d.Associated, core.AssociatedImage{
			Name:   name,
			Width:  dir.width,
			Height: dir.height,
		})
	}
	return d, nil
}

// aperioAssociatedName names a stripped directory out of count directories.
func aperioAssociatedName(dir directory, count int) string {
	if dir.position == 1 {
		return "thumbnail"
	}
	_, rest, _ := strings.Cut(dir.description, "\n")
	rest = strings.TrimSpace(rest)
	switch {
	case strings.HasPrefix(rest, "label"):
		return "label"
	case strings.HasPrefix(rest, "macro"):
		return "macro"
	case rest != "":
		return ""
	}
	switch dir.position {
	case count - 2:
		return "label"
	case count - 1:
		return "macro"
	}
	return ""
}

// aperioProperties parses "header|key = value|key = value" descriptions.
func aperioProperties(desc string) map[string]string {
	props := make(map[string]string)
	fields := strings.Split(desc, "|")
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		props["aperio."+key] = strings.TrimSpace(value)
	}

	if mpp, ok := props["aperio.MPP"]; ok {
		props[PropertyMPPX] = mpp
		props[PropertyMPPY] = mpp
	}
	if mag, ok := props["aperio.AppMag"]; ok {
		props[PropertyObjectivePower] = mag
	}
	return props
}
