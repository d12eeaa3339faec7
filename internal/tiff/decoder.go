package tiff

import "encoding/binary"

// decoder reads fixed-size values from an in-memory directory table.
// Callers size the buffer up front, so reads never run past the end.
type decoder struct {
	buf   []byte
	order binary.ByteOrder
	pos   int
}

func newDecoder(buf []byte, order binary.ByteOrder) *decoder {
	return &decoder{buf: buf, order: order}
}

func (d *decoder) bytes(n int) []byte {
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) u8() uint8 {
	return d.bytes(1)[0]
}

func (d *decoder) u16() uint16 {
	return d.order.Uint16(d.bytes(2))
}

func (d *decoder) u32() uint32 {
	return d.order.Uint32(d.bytes(4))
}

func (d *decoder) u64() uint64 {
	return d.order.Uint64(d.bytes(8))
}

// offset reads a 4- or 8-byte file offset.
func (d *decoder) offset(big bool) uint64 {
	if big {
		return d.u64()
	}
	return uint64(d.u32())
}
