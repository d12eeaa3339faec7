// Package tiff parses the directory structure of classic TIFF and BigTIFF
// files without reading image data.
//
// Only the image file directories (IFDs) and the small values they reference
// are loaded. Large arrays such as tile offsets are bounds-checked against the
// file size but never read.
package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/slideinfo/core"
)

// Default limits applied when a core.DirectoryLimits field is zero.
const (
	DefaultMaxDirectories = 1024
	DefaultMaxEntries     = 4096
	DefaultMaxValueLength = 1 << 20
)

// ErrFieldType is wrapped, together with core.ErrCorruptDirectory, by
// accessors reading a field stored with a type they cannot decode.
var ErrFieldType = errors.New("tiff: unexpected field type")

const (
	versionClassic = 42
	versionBig     = 43
)

// Header is the decoded file header.
type Header struct {
	Order    binary.ByteOrder
	BigTIFF  bool
	FirstIFD uint64
}

// offsetSize returns the width of offsets and inline value fields.
func (h Header) offsetSize() int {
	if h.BigTIFF {
		return 8
	}
	return 4
}

// entrySize returns the size of one directory entry.
func (h Header) entrySize() int {
	if h.BigTIFF {
		return 20
	}
	return 12
}

// countSize returns the size of the directory entry count.
func (h Header) countSize() int {
	if h.BigTIFF {
		return 8
	}
	return 2
}

// Entry is a single directory field.
type Entry struct {
	Tag   Tag
	Type  FieldType
	Count uint64

	// inline holds the value bytes when they fit in the entry.
	inline []byte
	// offset is the file offset of the value bytes when they do not.
	offset uint64
}

// IFD is one image file directory.
type IFD struct {
	// Offset is the file offset of the directory.
	Offset  uint64
	entries map[Tag]Entry
}

// Entry returns the field for tag.
func (d *IFD) Entry(tag Tag) (Entry, bool) {
	e, ok := d.entries[tag]
	return e, ok
}

// Has reports whether the directory contains tag.
func (d *IFD) Has(tag Tag) bool {
	_, ok := d.entries[tag]
	return ok
}

// Len returns the number of fields in the directory.
func (d *IFD) Len() int {
	return len(d.entries)
}

// File is a parsed TIFF directory chain.
type File struct {
	Header
	IFDs []*IFD

	r      io.ReaderAt
	size   int64
	limits core.DirectoryLimits
}

// IsTIFF reports whether header begins with a TIFF or BigTIFF signature.
func IsTIFF(header []byte) bool {
	if len(header) < 4 {
		return false
	}
	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return false
	}
	v := order.Uint16(header[2:4])
	return v == versionClassic || v == versionBig
}

// Parse reads the header and every directory of the chain.
//
// Errors wrap core.ErrUnsupportedFormat when the bytes are not TIFF and
// core.ErrCorruptDirectory when the directory chain is inconsistent.
func Parse(r io.ReaderAt, size int64, limits core.DirectoryLimits) (*File, error) {
	f := &File{r: r, size: size, limits: withDefaults(limits)}

	hdr, err := f.readHeader()
	if err != nil {
		return nil, err
	}
	f.Header = hdr

	visited := make(map[uint64]bool)
	next := hdr.FirstIFD
	for next != 0 {
		if visited[next] {
			return nil, fmt.Errorf("%w: directory cycle at offset %d", core.ErrCorruptDirectory, next)
		}
		if len(f.IFDs) >= f.limits.MaxDirectories {
			return nil, fmt.Errorf("%w: more than %d directories", core.ErrCorruptDirectory, f.limits.MaxDirectories)
		}
		visited[next] = true

		ifd, nextOffset, err := f.readIFD(next)
		if err != nil {
			return nil, fmt.Errorf("directory %d: %w", len(f.IFDs), err)
		}
		f.IFDs = append(f.IFDs, ifd)
		next = nextOffset
	}

	if len(f.IFDs) == 0 {
		return nil, fmt.Errorf("%w: no image directories", core.ErrCorruptDirectory)
	}
	return f, nil
}

func withDefaults(l core.DirectoryLimits) core.DirectoryLimits {
	if l.MaxDirectories <= 0 {
		l.MaxDirectories = DefaultMaxDirectories
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	if l.MaxValueLength <= 0 {
		l.MaxValueLength = DefaultMaxValueLength
	}
	return l
}

func (f *File) readHeader() (Header, error) {
	buf := make([]byte, 16)
	n, err := f.r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Header{}, err
	}
	buf = buf[:n]

	if !IsTIFF(buf) {
		return Header{}, fmt.Errorf("%w: missing TIFF signature", core.ErrUnsupportedFormat)
	}

	var hdr Header
	if buf[0] == 'I' {
		hdr.Order = binary.LittleEndian
	} else {
		hdr.Order = binary.BigEndian
	}

	switch hdr.Order.Uint16(buf[2:4]) {
	case versionClassic:
		if len(buf) < 8 {
			return Header{}, fmt.Errorf("%w: truncated header", core.ErrCorruptDirectory)
		}
		hdr.FirstIFD = uint64(hdr.Order.Uint32(buf[4:8]))
	case versionBig:
		if len(buf) < 16 {
			return Header{}, fmt.Errorf("%w: truncated BigTIFF header", core.ErrCorruptDirectory)
		}
		if hdr.Order.Uint16(buf[4:6]) != 8 || hdr.Order.Uint16(buf[6:8]) != 0 {
			return Header{}, fmt.Errorf("%w: unsupported BigTIFF offset size", core.ErrCorruptDirectory)
		}
		hdr.BigTIFF = true
		hdr.FirstIFD = hdr.Order.Uint64(buf[8:16])
	}

	if hdr.FirstIFD == 0 {
		return Header{}, fmt.Errorf("%w: no image directories", core.ErrCorruptDirectory)
	}
	return hdr, nil
}

// readIFD reads the directory at off and returns it with the offset of the next one.
func (f *File) readIFD(off uint64) (*IFD, uint64, error) {
	countBuf, err := f.readAt(off, uint64(f.countSize()))
	if err != nil {
		return nil, 0, err
	}

	var count uint64
	if f.BigTIFF {
		count = f.Order.Uint64(countBuf)
	} else {
		count = uint64(f.Order.Uint16(countBuf))
	}
	if count == 0 {
		return nil, 0, fmt.Errorf("%w: empty directory at offset %d", core.ErrCorruptDirectory, off)
	}
	if count > uint64(f.limits.MaxEntries) {
		return nil, 0, fmt.Errorf("%w: %d entries exceeds limit %d", core.ErrCorruptDirectory, count, f.limits.MaxEntries)
	}

	tableLen := count*uint64(f.entrySize()) + uint64(f.offsetSize())
	table, err := f.readAt(off+uint64(f.countSize()), tableLen)
	if err != nil {
		return nil, 0, err
	}

	d := newDecoder(table, f.Order)
	ifd := &IFD{Offset: off, entries: make(map[Tag]Entry, count)}
	for i := uint64(0); i < count; i++ {
		e, err := f.decodeEntry(d)
		if err != nil {
			return nil, 0, err
		}
		// First occurrence wins for duplicated tags.
		if _, dup := ifd.entries[e.Tag]; !dup {
			ifd.entries[e.Tag] = e
		}
	}

	next := d.offset(f.BigTIFF)
	return ifd, next, nil
}

func (f *File) decodeEntry(d *decoder) (Entry, error) {
	e := Entry{
		Tag:  Tag(d.u16()),
		Type: FieldType(d.u16()),
	}
	if f.BigTIFF {
		e.Count = d.u64()
	} else {
		e.Count = uint64(d.u32())
	}
	field := d.bytes(f.offsetSize())

	elem := uint64(e.Type.Size())
	if elem == 0 {
		// Unknown types are skipped by readers; keep the entry for completeness.
		return e, nil
	}
	if e.Count > uint64(f.size)/elem+1 {
		return Entry{}, fmt.Errorf("%w: %s count %d overflows file", core.ErrCorruptDirectory, e.Tag, e.Count)
	}

	length := e.Count * elem
	if length <= uint64(f.offsetSize()) {
		e.inline = field[:length]
		return e, nil
	}

	if f.BigTIFF {
		e.offset = f.Order.Uint64(field)
	} else {
		e.offset = uint64(f.Order.Uint32(field))
	}
	if !f.inBounds(e.offset, length) {
		return Entry{}, fmt.Errorf("%w: %s values at offset %d (%d bytes) past end of file", core.ErrCorruptDirectory, e.Tag, e.offset, length)
	}
	return e, nil
}

// inBounds reports whether [off, off+length) lies inside the file.
func (f *File) inBounds(off, length uint64) bool {
	size := uint64(f.size)
	return off <= size && length <= size-off
}

// readAt reads exactly length bytes at off.
func (f *File) readAt(off, length uint64) ([]byte, error) {
	if !f.inBounds(off, length) {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d past end of file", core.ErrCorruptDirectory, length, off)
	}
	buf := make([]byte, length)
	//nolint:gosec // G115: offset bounded by file size above
	n, err := f.r.ReadAt(buf, int64(off))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: short read at offset %d", core.ErrCorruptDirectory, off)
	}
	return nil, err
}

// values returns the raw value bytes of e.
func (f *File) values(e Entry) ([]byte, error) {
	if e.inline != nil || e.Count == 0 {
		return e.inline, nil
	}
	return f.readAt(e.offset, e.Count*uint64(e.Type.Size()))
}

// Uint returns the first value of an unsigned integer field.
func (f *File) Uint(ifd *IFD, tag Tag) (uint64, bool, error) {
	vals, ok, err := f.Uints(ifd, tag, 1)
	if err != nil || !ok {
		return 0, ok, err
	}
	return vals[0], true, nil
}

// Uints returns up to limit values of an unsigned integer field.
// A limit of 0 returns every value.
func (f *File) Uints(ifd *IFD, tag Tag, limit int) ([]uint64, bool, error) {
	e, ok := ifd.Entry(tag)
	if !ok || e.Count == 0 {
		return nil, false, nil
	}

	n := e.Count
	if limit > 0 && n > uint64(limit) {
		n = uint64(limit)
	}
	elem := uint64(e.Type.Size())

	var raw []byte
	var err error
	if e.inline != nil {
		raw = e.inline
	} else {
		raw, err = f.readAt(e.offset, n*elem)
		if err != nil {
			return nil, false, err
		}
	}

	out := make([]uint64, n)
	d := newDecoder(raw, f.Order)
	for i := range out {
		switch e.Type {
		case TypeByte, TypeUndefined:
			out[i] = uint64(d.u8())
		case TypeShort:
			out[i] = uint64(d.u16())
		case TypeLong, TypeIFD:
			out[i] = uint64(d.u32())
		case TypeLong8, TypeIFD8:
			out[i] = d.u64()
		default:
			return nil, false, fmt.Errorf("%w: %w: %s has non-integer type %d", core.ErrCorruptDirectory, ErrFieldType, tag, e.Type)
		}
	}
	return out, true, nil
}

// ASCII returns the value of a string field, trimmed at the first NUL.
func (f *File) ASCII(ifd *IFD, tag Tag) (string, bool, error) {
	e, ok := ifd.Entry(tag)
	if !ok {
		return "", false, nil
	}
	if e.Type != TypeASCII && e.Type != TypeByte && e.Type != TypeUndefined {
		return "", false, fmt.Errorf("%w: %w: %s has non-ASCII type %d", core.ErrCorruptDirectory, ErrFieldType, tag, e.Type)
	}
	//nolint:gosec // G115: MaxValueLength is positive after withDefaults
	if e.Count > uint64(f.limits.MaxValueLength) {
		return "", false, fmt.Errorf("%w: %s length %d exceeds limit %d", core.ErrCorruptDirectory, tag, e.Count, f.limits.MaxValueLength)
	}

	raw, err := f.values(e)
	if err != nil {
		return "", false, err
	}
	for i, b := range raw {
		if b == 0 {
			raw = raw[:i]
			break
		}
	}
	return string(raw), true, nil
}

// Rational returns the first value of a RATIONAL or SRATIONAL field as a
// float. Integer fields are converted.
func (f *File) Rational(ifd *IFD, tag Tag) (float64, bool, error) {
	e, ok := ifd.Entry(tag)
	if !ok || e.Count == 0 {
		return 0, false, nil
	}
	if e.Type != TypeRational && e.Type != TypeSRational {
		v, ok, err := f.Uint(ifd, tag)
		return float64(v), ok, err
	}

	raw := e.inline
	if raw == nil {
		var err error
		raw, err = f.readAt(e.offset, 8)
		if err != nil {
			return 0, false, err
		}
	}
	num := f.Order.Uint32(raw[0:4])
	den := f.Order.Uint32(raw[4:8])
	if den == 0 {
		return 0, false, nil
	}
	if e.Type == TypeSRational {
		//nolint:gosec // G115: reinterpreting two's complement
		return float64(int32(num)) / float64(int32(den)), true, nil
	}
	return float64(num) / float64(den), true, nil
}

// ArrayLen returns the element count of a field without reading its values.
func (f *File) ArrayLen(ifd *IFD, tag Tag) (uint64, bool) {
	e, ok := ifd.Entry(tag)
	if !ok {
		return 0, false
	}
	return e.Count, true
}
