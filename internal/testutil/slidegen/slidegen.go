// Package slidegen builds synthetic slide containers for tests.
// It writes real TIFF/BigTIFF directory structures with zero-filled tile
// tables, so files stay small while directories match real slides.
package slidegen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"slices"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/slideinfo/internal/tiff"
)

// Directory describes one image file directory to emit.
type Directory struct {
	Width  int64
	Height int64

	// TileWidth and TileHeight select a tiled directory; zero means stripped.
	TileWidth  int64
	TileHeight int64

	Description string
	SubfileType uint32

	// TileCount overrides the number of tile offsets written (0 = computed).
	TileCount int64

	// ASCII holds additional string tags (e.g. tiff.TagSoftware).
	ASCII map[tiff.Tag]string

	// PixelsPerCM writes a centimeter resolution; zero writes 72 dpi.
	PixelsPerCM uint32

	// Fields are written as given and replace generated fields with the same tag.
	Fields []Field
}

// Field is a raw tag with an explicit type. Values are element values,
// or numerator and denominator pairs for RATIONAL and SRATIONAL.
type Field struct {
	Tag    tiff.Tag
	Type   tiff.FieldType
	Values []int64
}

// Spec describes a whole container.
type Spec struct {
	BigTIFF   bool
	BigEndian bool

	Directories []Directory

	// Cycle points the last directory back at the first one.
	Cycle bool
	// Truncate removes this many bytes from the end of the file.
	Truncate int
}

// Level is a tiled pyramid level geometry.
type Level struct {
	Width, Height int64
}

// DefaultTileSize is the tile edge used by Aperio and GenericTIFF.
const DefaultTileSize = 256

// Aperio returns a spec laid out like an Aperio SVS file: the full
// resolution level, a stripped thumbnail, the remaining levels, then a
// label and a macro image.
func Aperio(levels ...Level) Spec {
	const header = "Aperio Image Library v12.0.15\r\n"
	desc := header + fmt.Sprintf("%dx%d [0,0 %dx%d] (256x256) JPEG/RGB Q=70", levels[0].Width, levels[0].Height, levels[0].Width, levels[0].Height) +
		"|AppMag = 20|StripeWidth = 2040|ScanScope ID = SS1234|Filename = 1234|Date = 04/16/24|MPP = 0.4990"

	dirs := []Directory{{
		Width: levels[0].Width, Height: levels[0].Height,
		TileWidth: DefaultTileSize, TileHeight: DefaultTileSize,
		Description: desc,
		ASCII:       map[tiff.Tag]string{tiff.TagSoftware: "ScanScope"},
	}, {
		Width: thumb(levels[0].Width), Height: thumb(levels[0].Height),
		Description: header + "thumbnail",
	}}
	for _, l := range levels[1:] {
		dirs = append(dirs, Directory{
			Width: l.Width, Height: l.Height,
			TileWidth: DefaultTileSize, TileHeight: DefaultTileSize,
			Description: header + fmt.Sprintf("%dx%d -> %dx%d", levels[0].Width, levels[0].Height, l.Width, l.Height),
		})
	}
	dirs = append(dirs,
		Directory{Width: 387, Height: 463, Description: header + "label 387x463", SubfileType: 1},
		Directory{Width: 1280, Height: 431, Description: header + "macro 1280x431", SubfileType: 9},
	)
	return Spec{Directories: dirs}
}

// GenericTIFF returns a spec with one tiled directory per level.
func GenericTIFF(levels ...Level) Spec {
	dirs := make([]Directory, 0, len(levels))
	for i, l := range levels {
		d := Directory{
			Width: l.Width, Height: l.Height,
			TileWidth: DefaultTileSize, TileHeight: DefaultTileSize,
		}
		if i > 0 {
			d.SubfileType = 1
		}
		dirs = append(dirs, d)
	}
	return Spec{Directories: dirs}
}

// Stripped returns a single-image TIFF without tiles.
func Stripped(width, height int64) Spec {
	return Spec{Directories: []Directory{{Width: width, Height: height}}}
}

func thumb(v int64) int64 {
	t := v / 64
	if t < 1 {
		return 1
	}
	return t
}

// Build encodes spec into TIFF bytes.
func Build(spec Spec) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	if spec.BigEndian {
		order = binary.BigEndian
	}
	w := &writer{order: order, big: spec.BigTIFF}
	w.header()

	var firstIFD uint64
	nextPtr := w.firstPtr
	for _, d := range spec.Directories {
		off := w.directory(d)
		if firstIFD == 0 {
			firstIFD = off
		}
		w.putOffset(nextPtr, off)
		nextPtr = w.nextPtr
	}
	if spec.Cycle && firstIFD != 0 {
		w.putOffset(nextPtr, firstIFD)
	}

	out := w.buf.Bytes()
	if spec.Truncate > 0 && spec.Truncate < len(out) {
		out = out[:len(out)-spec.Truncate]
	}
	return out
}

// WriteFile builds spec and writes it to path.
func WriteFile(path string, spec Spec) error {
	return os.WriteFile(path, Build(spec), 0o600)
}

// PNG returns a small valid PNG image.
func PNG(width, height int) []byte {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x ^ y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Gzip compresses data with gzip.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Zstd compresses data with zstd.
func Zstd(data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

type field struct {
	tag   tiff.Tag
	typ   tiff.FieldType
	count uint64
	data  []byte
}

type writer struct {
	buf   bytes.Buffer
	order binary.ByteOrder
	big   bool

	firstPtr int
	nextPtr  int
}

func (w *writer) header() {
	if w.order == binary.LittleEndian {
		w.buf.WriteString("II")
	} else {
		w.buf.WriteString("MM")
	}
	if w.big {
		w.u16(43)
		w.u16(8)
		w.u16(0)
		w.firstPtr = w.buf.Len()
		w.u64(0)
		return
	}
	w.u16(42)
	w.firstPtr = w.buf.Len()
	w.u32(0)
}

func (w *writer) u16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) offset(v uint64) {
	if w.big {
		w.u64(v)
		return
	}
	w.u32(uint32(v))
}

func (w *writer) putOffset(at int, v uint64) {
	b := w.buf.Bytes()
	if w.big {
		w.order.PutUint64(b[at:at+8], v)
		return
	}
	w.order.PutUint32(b[at:at+4], uint32(v))
}

func (w *writer) longField(tag tiff.Tag, v uint64) field {
	if w.big && v > 0xffffffff {
		b := make([]byte, 8)
		w.order.PutUint64(b, v)
		return field{tag: tag, typ: tiff.TypeLong8, count: 1, data: b}
	}
	b := make([]byte, 4)
	w.order.PutUint32(b, uint32(v))
	return field{tag: tag, typ: tiff.TypeLong, count: 1, data: b}
}

func (w *writer) shortField(tag tiff.Tag, v uint16) field {
	b := make([]byte, 2)
	w.order.PutUint16(b, v)
	return field{tag: tag, typ: tiff.TypeShort, count: 1, data: b}
}

func asciiField(tag tiff.Tag, s string) field {
	data := append([]byte(s), 0)
	return field{tag: tag, typ: tiff.TypeASCII, count: uint64(len(data)), data: data}
}

// arrayField returns a zero-filled offset array of n elements.
func (w *writer) arrayField(tag tiff.Tag, n int64) field {
	typ, size := tiff.TypeLong, 4
	if w.big {
		typ, size = tiff.TypeLong8, 8
	}
	return field{tag: tag, typ: typ, count: uint64(n), data: make([]byte, int(n)*size)}
}

func rationalField(order binary.ByteOrder, tag tiff.Tag, num, den uint32) field {
	b := make([]byte, 8)
	order.PutUint32(b[0:4], num)
	order.PutUint32(b[4:8], den)
	return field{tag: tag, typ: tiff.TypeRational, count: 1, data: b}
}

func (w *writer) rawField(f Field) field {
	size, count := f.Type.Size(), uint64(len(f.Values))
	if f.Type == tiff.TypeRational || f.Type == tiff.TypeSRational {
		size, count = 4, count/2
	}
	data := make([]byte, size*len(f.Values))
	for i, v := range f.Values {
		b := data[i*size : (i+1)*size]
		switch size {
		case 1:
			b[0] = byte(v)
		case 2:
			w.order.PutUint16(b, uint16(v))
		case 4:
			w.order.PutUint32(b, uint32(v))
		default:
			w.order.PutUint64(b, uint64(v))
		}
	}
	return field{tag: f.Tag, typ: f.Type, count: count, data: data}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// directory writes the out-of-line values of d followed by its IFD and
// returns the IFD offset.
func (w *writer) directory(d Directory) uint64 {
	fields := []field{
		w.longField(tiff.TagImageWidth, uint64(d.Width)),
		w.longField(tiff.TagImageLength, uint64(d.Height)),
		w.shortField(tiff.TagCompression, 7),
		w.shortField(tiff.TagPhotometric, 2),
		w.shortField(tiff.TagSamplesPerPixel, 3),
		w.shortField(tiff.TagPlanarConfiguration, 1),
	}
	if d.PixelsPerCM > 0 {
		fields = append(fields,
			rationalField(w.order, tiff.TagXResolution, d.PixelsPerCM, 1),
			rationalField(w.order, tiff.TagYResolution, d.PixelsPerCM, 1),
			w.shortField(tiff.TagResolutionUnit, 3),
		)
	} else {
		fields = append(fields,
			rationalField(w.order, tiff.TagXResolution, 72, 1),
			rationalField(w.order, tiff.TagYResolution, 72, 1),
			w.shortField(tiff.TagResolutionUnit, 2),
		)
	}
	if d.SubfileType != 0 {
		fields = append(fields, w.longField(tiff.TagNewSubfileType, uint64(d.SubfileType)))
	}
	if d.Description != "" {
		fields = append(fields, asciiField(tiff.TagImageDescription, d.Description))
	}
	for tag, s := range d.ASCII {
		fields = append(fields, asciiField(tag, s))
	}
	for _, f := range d.Fields {
		fields = slices.DeleteFunc(fields, func(g field) bool { return g.tag == f.Tag })
		fields = append(fields, w.rawField(f))
	}

	if d.TileWidth > 0 && d.TileHeight > 0 {
		n := d.TileCount
		if n == 0 {
			n = ceilDiv(d.Width, d.TileWidth) * ceilDiv(d.Height, d.TileHeight)
		}
		fields = append(fields,
			w.longField(tiff.TagTileWidth, uint64(d.TileWidth)),
			w.longField(tiff.TagTileLength, uint64(d.TileHeight)),
			w.arrayField(tiff.TagTileOffsets, n),
			w.arrayField(tiff.TagTileByteCounts, n),
		)
	} else {
		fields = append(fields,
			w.longField(tiff.TagRowsPerStrip, uint64(d.Height)),
			w.arrayField(tiff.TagStripOffsets, 1),
			w.arrayField(tiff.TagStripByteCounts, 1),
		)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].tag < fields[j].tag })

	inlineSize := 4
	if w.big {
		inlineSize = 8
	}

	// Out-of-line values first.
	offsets := make([]uint64, len(fields))
	for i, f := range fields {
		if len(f.data) > inlineSize {
			w.align()
			offsets[i] = uint64(w.buf.Len())
			w.buf.Write(f.data)
		}
	}

	w.align()
	ifdOffset := uint64(w.buf.Len())
	if w.big {
		w.u64(uint64(len(fields)))
	} else {
		w.u16(uint16(len(fields)))
	}
	for i, f := range fields {
		w.u16(uint16(f.tag))
		w.u16(uint16(f.typ))
		if w.big {
			w.u64(f.count)
		} else {
			w.u32(uint32(f.count))
		}
		if len(f.data) > inlineSize {
			w.offset(offsets[i])
			continue
		}
		inline := make([]byte, inlineSize)
		copy(inline, f.data)
		w.buf.Write(inline)
	}
	w.nextPtr = w.buf.Len()
	w.offset(0)
	return ifdOffset
}

func (w *writer) align() {
	if w.buf.Len()%2 != 0 {
		w.buf.WriteByte(0)
	}
}
