// Package pictest assembles synthetic PIC files for tests.
package pictest

import (
	"bytes"
	"encoding/binary"
)

// Byte offsets of the header fields
const (
	FormatOffset         = 0
	WidthOffset          = 2
	HeightOffset         = 6
	PixelsOffsetOffset   = 10
	PixelsSizeOffset     = 14
	PaletteOffsetOffset  = 18
	PaletteSizeOffset    = 22
	SpansOffsetOffset    = 26
	SpansSizeOffset      = 30
	RowheadsOffsetOffset = 34
	RowheadsSizeOffset   = 38

	HeaderSize = 42
	SpanSize   = 10
)

// Span is a span record as written to the file
type Span struct {
	Row   uint16
	Start uint16
	End   uint16
	Index uint32
}

// Picture is laid out as header, pixels, palette, spans and finally row
// heads. A zeroed terminator record is appended to Spans.
type Picture struct {
	Format   uint16
	Width    uint32
	Height   uint32
	Pixels   []byte
	Palette  []byte
	Spans    []Span
	Rowheads []byte
}

// Bytes returns the encoded picture
func (p *Picture) Bytes() []byte {
	spans := new(bytes.Buffer)
	for _, s := range p.Spans {
		_ = binary.Write(spans, binary.LittleEndian, s)
	}
	_ = binary.Write(spans, binary.LittleEndian, Span{})

	offset := uint32(HeaderSize)
	region := func(size int) [2]uint32 {
		r := [2]uint32{offset, uint32(size)}
		offset += uint32(size)
		return r
	}

	pixels := region(len(p.Pixels))
	palette := region(len(p.Palette))
	spanTable := region(spans.Len())
	rowheads := region(len(p.Rowheads))

	b := new(bytes.Buffer)
	_ = binary.Write(b, binary.LittleEndian, p.Format)
	_ = binary.Write(b, binary.LittleEndian, p.Width)
	_ = binary.Write(b, binary.LittleEndian, p.Height)
	for _, r := range [][2]uint32{pixels, palette, spanTable, rowheads} {
		_ = binary.Write(b, binary.LittleEndian, r)
	}

	b.Write(p.Pixels)
	b.Write(p.Palette)
	b.Write(spans.Bytes())
	b.Write(p.Rowheads)

	return b.Bytes()
}

// PutUint32 overwrites the header field at offset in b
func PutUint32(b []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(b[offset:], v)
}

// Uint32 reads the header field at offset in b
func Uint32(b []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(b[offset:])
}

// Palette returns n palette entries where entry i is (i, i, i) before
// scaling, handy for working out which palette resolved an index.
func Palette(n int) []byte {
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		b = append(b, byte(i)&0x3f, byte(i)&0x3f, byte(i)&0x3f)
	}
	return b
}
