package tiff_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/slideinfo/core"
	"github.com/meigma/slideinfo/internal/testutil/slidegen"
	"github.com/meigma/slideinfo/internal/tiff"
)

func parse(t *testing.T, data []byte) (*tiff.File, error) {
	t.Helper()
	return tiff.Parse(bytes.NewReader(data), int64(len(data)), core.DirectoryLimits{})
}

func TestIsTIFF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{"little-endian classic", []byte{'I', 'I', 42, 0}, true},
		{"big-endian classic", []byte{'M', 'M', 0, 42}, true},
		{"little-endian BigTIFF", []byte{'I', 'I', 43, 0, 8, 0}, true},
		{"big-endian BigTIFF", []byte{'M', 'M', 0, 43}, true},
		{"wrong version", []byte{'I', 'I', 41, 0}, false},
		{"mixed order", []byte{'I', 'M', 42, 0}, false},
		{"short", []byte{'I', 'I'}, false},
		{"png", []byte("\x89PNG\r\n\x1a\n"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tiff.IsTIFF(tt.header))
		})
	}
}

func TestParse_Variants(t *testing.T) {
	t.Parallel()

	levels := []slidegen.Level{{Width: 4096, Height: 3072}, {Width: 1024, Height: 768}}

	tests := []struct {
		name      string
		bigTIFF   bool
		bigEndian bool
		order     binary.ByteOrder
	}{
		{"classic little-endian", false, false, binary.LittleEndian},
		{"classic big-endian", false, true, binary.BigEndian},
		{"BigTIFF little-endian", true, false, binary.LittleEndian},
		{"BigTIFF big-endian", true, true, binary.BigEndian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec := slidegen.Aperio(levels...)
			spec.BigTIFF = tt.bigTIFF
			spec.BigEndian = tt.bigEndian

			f, err := parse(t, slidegen.Build(spec))
			require.NoError(t, err)

			assert.Equal(t, tt.bigTIFF, f.BigTIFF)
			assert.Equal(t, tt.order, f.Order)
			require.Len(t, f.IFDs, 5)

			ifd := f.IFDs[0]
			w, ok, err := f.Uint(ifd, tiff.TagImageWidth)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, uint64(4096), w)

			desc, ok, err := f.ASCII(ifd, tiff.TagImageDescription)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Contains(t, desc, "Aperio Image Library")
			assert.NotContains(t, desc, "\x00")

			xres, ok, err := f.Rational(ifd, tiff.TagXResolution)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.InDelta(t, 72.0, xres, 1e-9)

			n, ok := f.ArrayLen(ifd, tiff.TagTileOffsets)
			assert.True(t, ok)
			assert.Equal(t, uint64(16*12), n)

			offsets, ok, err := f.Uints(ifd, tiff.TagTileOffsets, 3)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Len(t, offsets, 3)

			assert.False(t, f.IFDs[1].Has(tiff.TagTileWidth))
			_, ok, err = f.Uint(f.IFDs[1], tiff.TagTileWidth)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	levels := []slidegen.Level{{Width: 2048, Height: 2048}, {Width: 512, Height: 512}}

	cycle := slidegen.GenericTIFF(levels...)
	cycle.Cycle = true

	truncated := slidegen.GenericTIFF(levels...)
	truncated.Truncate = 3

	bigTruncated := slidegen.GenericTIFF(levels...)
	bigTruncated.BigTIFF = true
	bigTruncated.Truncate = 12

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not tiff", []byte("GIF89a........"), core.ErrUnsupportedFormat},
		{"empty", nil, core.ErrUnsupportedFormat},
		{"truncated classic header", []byte{'I', 'I', 42, 0, 8}, core.ErrCorruptDirectory},
		{"truncated BigTIFF header", []byte{'I', 'I', 43, 0, 8, 0, 0, 0, 16}, core.ErrCorruptDirectory},
		{"BigTIFF bad offset size", []byte{'I', 'I', 43, 0, 4, 0, 0, 0, 16, 0, 0, 0, 0, 0, 0, 0}, core.ErrCorruptDirectory},
		{"zero first offset", []byte{'M', 'M', 0, 42, 0, 0, 0, 0}, core.ErrCorruptDirectory},
		{"first offset past end", []byte{'I', 'I', 42, 0, 0xff, 0xff, 0, 0}, core.ErrCorruptDirectory},
		{"empty directory", []byte{'I', 'I', 42, 0, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0}, core.ErrCorruptDirectory},
		{"cycle", slidegen.Build(cycle), core.ErrCorruptDirectory},
		{"truncated directory", slidegen.Build(truncated), core.ErrCorruptDirectory},
		{"truncated BigTIFF directory", slidegen.Build(bigTruncated), core.ErrCorruptDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := parse(t, tt.data)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_Limits(t *testing.T) {
	t.Parallel()

	data := slidegen.Build(slidegen.Aperio(slidegen.Level{Width: 1024, Height: 1024}))

	_, err := tiff.Parse(bytes.NewReader(data), int64(len(data)), core.DirectoryLimits{MaxDirectories: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCorruptDirectory)
	assert.Contains(t, err.Error(), "more than 3 directories")

	_, err = tiff.Parse(bytes.NewReader(data), int64(len(data)), core.DirectoryLimits{MaxEntries: 4})
	assert.ErrorIs(t, err, core.ErrCorruptDirectory)

	f, err := tiff.Parse(bytes.NewReader(data), int64(len(data)), core.DirectoryLimits{MaxValueLength: 8})
	require.NoError(t, err, "value limits apply when fields are read")
	_, _, err = f.ASCII(f.IFDs[0], tiff.TagImageDescription)
	assert.ErrorIs(t, err, core.ErrCorruptDirectory)
}

func TestParse_DefaultLimitStopsLongChain(t *testing.T) {
	t.Parallel()

	dirs := make([]slidegen.Directory, tiff.DefaultMaxDirectories+1)
	for i := range dirs {
		dirs[i] = slidegen.Directory{Width: 1, Height: 1}
	}
	data := slidegen.Build(slidegen.Spec{Directories: dirs})

	_, err := parse(t, data)
	assert.ErrorIs(t, err, core.ErrCorruptDirectory)
}

func TestFile_FieldTypes(t *testing.T) {
	t.Parallel()

	spec := slidegen.GenericTIFF(slidegen.Level{Width: 512, Height: 512})
	spec.Directories[0].Description = "generic"
	spec.Directories[0].Fields = []slidegen.Field{
		{Tag: tiff.TagSoftware, Type: tiff.TypeShort, Values: []int64{7}},
		{Tag: tiff.TagXResolution, Type: tiff.TypeSRational, Values: []int64{300, 1}},
		{Tag: tiff.TagYResolution, Type: tiff.TypeSRational, Values: []int64{-4, 2}},
	}
	f, err := parse(t, slidegen.Build(spec))
	require.NoError(t, err)
	ifd := f.IFDs[0]

	_, _, err = f.ASCII(ifd, tiff.TagSoftware)
	require.Error(t, err)
	assert.ErrorIs(t, err, tiff.ErrFieldType)
	assert.ErrorIs(t, err, core.ErrCorruptDirectory)

	_, _, err = f.Uint(ifd, tiff.TagImageDescription)
	assert.ErrorIs(t, err, tiff.ErrFieldType)

	xres, ok, err := f.Rational(ifd, tiff.TagXResolution)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 300.0, xres, 1e-9)

	yres, ok, err := f.Rational(ifd, tiff.TagYResolution)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, -2.0, yres, 1e-9)
}

func TestTag_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ImageDescription", tiff.TagImageDescription.String())
	assert.Equal(t, "Tag(999)", tiff.Tag(999).String())
}
