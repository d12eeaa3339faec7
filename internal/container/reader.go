// Package container implements core.DirectoryReader for TIFF-derived
// whole-slide formats.
package container

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/tiff"
)

// Compile-time interface implementation check.
var _ core.DirectoryReader = (*Reader)(nil)

// format recognizes one vendor layout of TIFF directories.
type format interface {
	name() string
	detect(f *tiff.File, dirs []directory) bool
	build(f *tiff.File, dirs []directory) (*core.Directory, error)
}

// Reader reads slide level directories.
type Reader struct {
	limits  core.DirectoryLimits
	formats []format
	logger  *slog.Logger
}

// NewReader creates a new Reader. Zero limits select the parser defaults.
// A nil logger discards messages.
func NewReader(limits core.DirectoryLimits, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{
		limits:  limits,
		formats: []format{aperio{}, genericTIFF{}},
		logger:  logger,
	}
}

// ReadDirectory parses the level directory from a slide container.
// The size parameter is the total container size.
func (r *Reader) ReadDirectory(ra io.ReaderAt, size int64) (*core.Directory, error) {
	f, err := tiff.Parse(ra, size, r.limits)
	if err != nil {
		if errors.Is(err, core.ErrUnsupportedFormat) {
			return nil, describeUnsupported(ra, size)
		}
		return nil, err
	}

	dirs, err := inspect(f, r.logger)
	if err != nil {
		return nil, err
	}

	for _, fm := range r.formats {
		if !fm.detect(f, dirs) {
			continue
		}
		d, err := fm.build(f, dirs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fm.name(), err)
		}
		if err := finish(f, d, r.logger); err != nil {
			return nil, fmt.Errorf("%s: %w", fm.name(), err)
		}
		return d, nil
	}

	return nil, fmt.Errorf("%w: TIFF without tiled image directories", core.ErrUnsupportedFormat)
}

// directory is the geometry summary of one IFD.
type directory struct {
	ifd         *tiff.IFD
	position    int
	width       int64
	height      int64
	tileWidth   int64
	tileHeight  int64
	subfileType uint64
	description string
}

func (d directory) tiled() bool {
	return d.tileWidth > 0 && d.tileHeight > 0
}

// inspect reads and checks the geometry tags of every directory.
func inspect(f *tiff.File, logger *slog.Logger) ([]directory, error) {
	dirs := make([]directory, 0, len(f.IFDs))
	for i, ifd := range f.IFDs {
		d := directory{ifd: ifd, position: i}

		w, okW, err := f.Uint(ifd, tiff.TagImageWidth)
		if err != nil {
			return nil, fmt.Errorf("directory %d: %w", i, err)
		}
		h, okH, err := f.Uint(ifd, tiff.TagImageLength)
		if err != nil {
			return nil, fmt.Errorf("directory %d: %w", i, err)
		}
		if !okW || !okH || w == 0 || h == 0 {
			return nil, fmt.Errorf("%w: directory %d has no image dimensions", core.ErrCorruptDirectory, i)
		}
		//nolint:gosec // G115: TIFF dimensions are at most 64-bit BigTIFF values; checked below
		d.width, d.height = int64(w), int64(h)
		if d.width < 0 || d.height < 0 {
			return nil, fmt.Errorf("%w: directory %d dimensions overflow", core.ErrCorruptDirectory, i)
		}

		st, ok, err := f.Uint(ifd, tiff.TagNewSubfileType)
		if err := optional(tiff.TagNewSubfileType, err, logger); err != nil {
			return nil, fmt.Errorf("directory %d: %w", i, err)
		}
		if ok {
			d.subfileType = st
		}

		desc, ok, err := f.ASCII(ifd, tiff.TagImageDescription)
		if err := optional(tiff.TagImageDescription, err, logger); err != nil {
			return nil, fmt.Errorf("directory %d: %w", i, err)
		}
		if ok {
			d.description = desc
		}

		if ifd.Has(tiff.TagTileWidth) || ifd.Has(tiff.TagTileLength) {
			if err := inspectTiles(f, &d); err != nil {
				return nil, fmt.Errorf("directory %d: %w", i, err)
			}
		}
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// inspectTiles checks that the tile table matches the directory geometry.
func inspectTiles(f *tiff.File, d *directory) error {
	tw, okW, err := f.Uint(d.ifd, tiff.TagTileWidth)
	if err != nil {
		return err
	}
	th, okH, err := f.Uint(d.ifd, tiff.TagTileLength)
	if err != nil {
		return err
	}
	if !okW || !okH || tw == 0 || th == 0 {
		return fmt.Errorf("%w: incomplete tile size", core.ErrCorruptDirectory)
	}

	across := (uint64(d.width) + tw - 1) / tw
	down := (uint64(d.height) + th - 1) / th
	want := across * down
	if planar, ok, err := f.Uint(d.ifd, tiff.TagPlanarConfiguration); err == nil && ok && planar == 2 {
		if spp, ok, err := f.Uint(d.ifd, tiff.TagSamplesPerPixel); err == nil && ok {
			want *= spp
		}
	}

	for _, tag := range []tiff.Tag{tiff.TagTileOffsets, tiff.TagTileByteCounts} {
		n, ok := f.ArrayLen(d.ifd, tag)
		if !ok {
			return fmt.Errorf("%w: missing %s", core.ErrCorruptDirectory, tag)
		}
		if n != want {
			return fmt.Errorf("%w: %s has %d entries, geometry needs %d", core.ErrCorruptDirectory, tag, n, want)
		}
	}

	//nolint:gosec // G115: tile sizes are bounded by the image size in practice
	d.tileWidth, d.tileHeight = int64(tw), int64(th)
	return nil
}

// finish orders the levels and fills the derived geometry and common properties.
func finish(f *tiff.File, d *core.Directory, logger *slog.Logger) error {
	if len(d.Levels) == 0 {
		return fmt.Errorf("%w: no pyramid levels", core.ErrUnsupportedFormat)
	}

	sort.SliceStable(d.Levels, func(i, j int) bool {
		a, b := d.Levels[i], d.Levels[j]
		if a.Width != b.Width {
			return a.Width > b.Width
		}
		return a.Height > b.Height
	})

	base := d.Levels[0]
	for i := range d.Levels {
		l := &d.Levels[i]
		l.Index = i
		l.Downsample = (float64(base.Width)/float64(l.Width) + float64(base.Height)/float64(l.Height)) / 2
	}

	if d.Properties == nil {
		d.Properties = make(map[string]string)
	}
	if err := tiffProperties(f, d.Properties, logger); err != nil {
		return err
	}

	d.Properties[PropertyVendor] = d.Format
	d.Properties[PropertyLevelCount] = strconv.Itoa(len(d.Levels))
	for _, l := range d.Levels {
		prefix := fmt.Sprintf("slide.level[%d].", l.Index)
		d.Properties[prefix+"width"] = strconv.FormatInt(l.Width, 10)
		d.Properties[prefix+"height"] = strconv.FormatInt(l.Height, 10)
		d.Properties[prefix+"downsample"] = strconv.FormatFloat(l.Downsample, 'g', -1, 64)
		d.Properties[prefix+"tile-width"] = strconv.FormatInt(l.TileWidth, 10)
		d.Properties[prefix+"tile-height"] = strconv.FormatInt(l.TileHeight, 10)
	}
	return nil
}

// level converts a tiled directory to level geometry; Index is set by finish.
func level(d directory) core.LevelGeometry {
	return core.LevelGeometry{
		Width:      d.width,
		Height:     d.height,
		TileWidth:  d.tileWidth,
		TileHeight: d.tileHeight,
	}
}
