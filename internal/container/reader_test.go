package container_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/container"
	"github.com/meigma/slideinfo/internal/testutil/slidegen"
	"github.com/meigma/slideinfo/internal/tiff"
)

func read(t *testing.T, data []byte) (*core.Directory, error) {
	t.Helper()
	return container.NewReader(core.DirectoryLimits{}, nil).ReadDirectory(bytes.NewReader(data), int64(len(data)))
}

var levels = []slidegen.Level{
	{Width: 46000, Height: 32914},
	{Width: 11500, Height: 8228},
	{Width: 2875, Height: 2057},
}

func TestReader_Aperio(t *testing.T) {
	t.Parallel()

	d, err := read(t, slidegen.Build(slidegen.Aperio(levels...)))
	require.NoError(t, err)

	assert.Equal(t, "aperio", d.Format)
	require.Len(t, d.Levels, 3)
	for i, l := range d.Levels {
		assert.Equal(t, i, l.Index)
		assert.Equal(t, levels[i].Width, l.Width)
		assert.Equal(t, levels[i].Height, l.Height)
		assert.Equal(t, int64(slidegen.DefaultTileSize), l.TileWidth)
	}
	assert.InDelta(t, 1.0, d.Levels[0].Downsample, 1e-9)
	assert.InDelta(t, 4.0, d.Levels[1].Downsample, 0.01)
	assert.InDelta(t, 16.0, d.Levels[2].Downsample, 0.01)

	names := make([]string, 0, len(d.Associated))
	for _, a := range d.Associated {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"thumbnail", "label", "macro"}, names)

	assert.Equal(t, "aperio", d.Properties[container.PropertyVendor])
	assert.Equal(t, "3", d.Properties[container.PropertyLevelCount])
	assert.Equal(t, "0.4990", d.Properties[container.PropertyMPPX])
	assert.Equal(t, "20", d.Properties[container.PropertyObjectivePower])
	assert.Equal(t, "2040", d.Properties["aperio.StripeWidth"])
	assert.Equal(t, "04/16/24", d.Properties["aperio.Date"])
	assert.Equal(t, "ScanScope", d.Properties["tiff.Software"])
	assert.Equal(t, "inch", d.Properties["tiff.ResolutionUnit"])
	assert.Equal(t, "72", d.Properties["tiff.XResolution"])
	assert.Contains(t, d.Properties["tiff.ImageDescription"], "Aperio Image Library")
}

func TestReader_GenericTIFF(t *testing.T) {
	t.Parallel()

	spec := slidegen.GenericTIFF(levels...)
	spec.Directories[0].PixelsPerCM = 40000
	spec.Directories = append(spec.Directories, slidegen.Directory{Width: 640, Height: 480, Description: "overview"})

	d, err := read(t, slidegen.Build(spec))
	require.NoError(t, err)

	assert.Equal(t, "generic-tiff", d.Format)
	assert.Len(t, d.Levels, 3, "stripped directories are not levels")
	assert.Empty(t, d.Associated)
	assert.Equal(t, "generic-tiff", d.Properties[container.PropertyVendor])
	assert.Equal(t, "0.25", d.Properties[container.PropertyMPPX])
	assert.Equal(t, "0.25", d.Properties[container.PropertyMPPY])
	assert.Equal(t, "centimeter", d.Properties["tiff.ResolutionUnit"])
}

func TestReader_NotAperioWithoutPrefix(t *testing.T) {
	t.Parallel()

	spec := slidegen.Aperio(levels...)
	spec.Directories[0].Description = "Generic scanner output"

	d, err := read(t, slidegen.Build(spec))
	require.NoError(t, err)
	assert.Equal(t, "generic-tiff", d.Format)
	assert.NotContains(t, d.Properties, container.PropertyObjectivePower)
}

func TestReader_SortsLevelsByWidth(t *testing.T) {
	t.Parallel()

	d, err := read(t, slidegen.Build(slidegen.GenericTIFF(levels[2], levels[0], levels[1])))
	require.NoError(t, err)

	require.Len(t, d.Levels, 3)
	assert.Equal(t, levels[0].Width, d.Levels[0].Width)
	assert.Equal(t, levels[1].Width, d.Levels[1].Width)
	assert.Equal(t, levels[2].Width, d.Levels[2].Width)
	assert.Equal(t, "11500", d.Properties["slide.level[1].width"])
}

func TestReader_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		message string
	}{
		{"empty", nil, "empty file"},
		{"png", slidegen.PNG(10, 20), "png image (10x20)"},
		{"text", []byte("hello, world"), "unrecognized file signature"},
		{"stripped tiff", slidegen.Build(slidegen.Stripped(100, 100)), "without tiled image directories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := read(t, tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestReader_Corrupt(t *testing.T) {
	t.Parallel()

	tooFew := slidegen.GenericTIFF(levels...)
	tooFew.Directories[2].TileCount = 1

	tooMany := slidegen.Aperio(levels...)
	tooMany.Directories[0].TileCount = 100000

	noWidth := slidegen.GenericTIFF(levels...)
	noWidth.Directories[1].Width = 0

	tests := []struct {
		name string
		spec slidegen.Spec
	}{
		{"too few tiles", tooFew},
		{"too many tiles", tooMany},
		{"zero width", noWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := read(t, slidegen.Build(tt.spec))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrCorruptDirectory)
		})
	}
}

func TestReader_AssociatedNames(t *testing.T) {
	t.Parallel()

	spec := slidegen.Aperio(levels...)
	spec.Directories = append(spec.Directories, slidegen.Directory{
		Width: 10, Height: 10, Description: "Aperio Image Library v12.0.15\r\nunknown 10x10",
		ASCII: map[tiff.Tag]string{tiff.TagSoftware: "ignored"},
	})

	d, err := read(t, slidegen.Build(spec))
	require.NoError(t, err)
	assert.Len(t, d.Associated, 3, "unnamed stripped directories are skipped")
	assert.Equal(t, "ScanScope", d.Properties["tiff.Software"], "tiff properties come from the first directory")
}

func TestReader_AssociatedNamesByPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label string
		macro string
	}{
		{"header only", "Aperio Image Library v12.0.15", "Aperio Image Library v12.0.15"},
		{"empty second line", "Aperio Image Library v12.0.15\r\n", "Aperio Image Library v12.0.15\r\n"},
		{"no description", "", ""},
		{"named macro only", "Aperio Image Library v12.0.15", "Aperio Image Library v12.0.15\r\nmacro 1280x431"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec := slidegen.Aperio(levels...)
			n := len(spec.Directories)
			spec.Directories[n-2].Description = tt.label
			spec.Directories[n-1].Description = tt.macro

			d, err := read(t, slidegen.Build(spec))
			require.NoError(t, err)

			require.Len(t, d.Associated, 3)
			assert.Equal(t, "thumbnail", d.Associated[0].Name)
			assert.Equal(t, core.AssociatedImage{Name: "label", Width: 387, Height: 463}, d.Associated[1])
			assert.Equal(t, core.AssociatedImage{Name: "macro", Width: 1280, Height: 431}, d.Associated[2])
		})
	}
}

func TestReader_AssociatedNamesNoDuplicates(t *testing.T) {
	t.Parallel()

	// Named label and macro, then an unnamed directory in the macro position.
	spec := slidegen.Aperio(levels...)
	spec.Directories = append(spec.Directories, slidegen.Directory{
		Width: 20, Height: 20, Description: "Aperio Image Library v12.0.15",
	})

	d, err := read(t, slidegen.Build(spec))
	require.NoError(t, err)

	names := make([]string, 0, len(d.Associated))
	for _, a := range d.Associated {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"thumbnail", "label", "macro"}, names)
	assert.Equal(t, int64(1280), d.Associated[2].Width, "the named macro wins")
}

func TestReader_MistypedOptionalTags(t *testing.T) {
	t.Parallel()

	spec := slidegen.GenericTIFF(levels...)
	spec.Directories[0].Fields = []slidegen.Field{
		{Tag: tiff.TagSoftware, Type: tiff.TypeShort, Values: []int64{7}},
		{Tag: tiff.TagXResolution, Type: tiff.TypeFloat, Values: []int64{0x43960000}},
		{Tag: tiff.TagYResolution, Type: tiff.TypeSRational, Values: []int64{300, 1}},
		{Tag: tiff.TagImageDescription, Type: tiff.TypeLong, Values: []int64{1}},
	}

	d, err := read(t, slidegen.Build(spec))
	require.NoError(t, err)

	assert.Equal(t, "generic-tiff", d.Format)
	require.Len(t, d.Levels, 3)
	assert.NotContains(t, d.Properties, "tiff.Software")
	assert.NotContains(t, d.Properties, "tiff.XResolution")
	assert.NotContains(t, d.Properties, "tiff.ImageDescription")
	assert.Equal(t, "300", d.Properties["tiff.YResolution"])
	assert.Equal(t, "inch", d.Properties["tiff.ResolutionUnit"])
}

func TestReader_MistypedGeometryTag(t *testing.T) {
	t.Parallel()

	spec := slidegen.GenericTIFF(levels...)
	spec.Directories[1].Fields = []slidegen.Field{
		{Tag: tiff.TagImageWidth, Type: tiff.TypeFloat, Values: []int64{0x46340000}},
	}

	_, err := read(t, slidegen.Build(spec))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCorruptDirectory)
}
