package container

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/meigma/slideinfo/internal/tiff"
)

// Well-known property names.
const (
	PropertyVendor         = "slide.vendor"
	PropertyLevelCount     = "slide.level-count"
	PropertyMPPX           = "slide.mpp-x"
	PropertyMPPY           = "slide.mpp-y"
	PropertyObjectivePower = "slide.objective-power"
)

// tiffProperties copies the descriptive tags of the first directory.
// Tags stored with an unexpected type are skipped.
func tiffProperties(f *tiff.File, props map[string]string, logger *slog.Logger) error {
	ifd := f.IFDs[0]
	for _, tag := range tiff.ASCIIPropertyTags {
		v, ok, err := f.ASCII(ifd, tag)
		if err := optional(tag, err, logger); err != nil {
			return err
		}
		if ok {
			props["tiff."+tag.String()] = v
		}
	}

	for _, tag := range []tiff.Tag{tiff.TagXResolution, tiff.TagYResolution} {
		v, ok, err := f.Rational(ifd, tag)
		if err := optional(tag, err, logger); err != nil {
			return err
		}
		if ok {
			props["tiff."+tag.String()] = strconv.FormatFloat(v, 'g', -1, 64)
		}
	}

	unit, ok, err := f.Uint(ifd, tiff.TagResolutionUnit)
	if err := optional(tiff.TagResolutionUnit, err, logger); err != nil {
		return err
	}
	if ok {
		props["tiff.ResolutionUnit"] = resolutionUnit(unit)
	}
	return nil
}

// optional drops field type errors of non-geometry tags.
func optional(tag tiff.Tag, err error, logger *slog.Logger) error {
	if err == nil || !errors.Is(err, tiff.ErrFieldType) {
		return err
	}
	logger.Debug("skipping tag", "tag", tag.String(), "error", err)
	return nil
}

func resolutionUnit(v uint64) string {
	switch v {
	case 1:
		return "none"
	case 2:
		return "inch"
	case 3:
		return "centimeter"
	default:
		return "unknown"
	}
}

// resolutionMPP derives microns per pixel from a centimeter TIFF resolution.
func resolutionMPP(f *tiff.File, props map[string]string) {
	unit, ok, err := f.Uint(f.IFDs[0], tiff.TagResolutionUnit)
	if err != nil || !ok || unit != 3 {
		return
	}
	for tag, key := range map[tiff.Tag]string{tiff.TagXResolution: PropertyMPPX, tiff.TagYResolution: PropertyMPPY} {
		v, ok, err := f.Rational(f.IFDs[0], tag)
		if err != nil || !ok || v <= 0 {
			continue
		}
		props[key] = strconv.FormatFloat(10000/v, 'g', -1, 64)
	}
}
