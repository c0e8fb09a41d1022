package pic

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Region is a range of bytes within a PIC file
type Region struct {
	Offset uint32
	Size   uint32
}

func (r Region) end() uint64 {
	return uint64(r.Offset) + uint64(r.Size)
}

// Header is the fixed header at the start of every PIC file
type Header struct {
	Format   uint16
	Width    uint32
	Height   uint32
	Pixels   Region
	Palette  Region
	Spans    Region
	Rowheads Region
}

// ParseHeader reads the header from the start of b. It makes no attempt to
// check the regions against the length of b.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < headerSize {
		return h, newError(ErrMalformedHeader, "length", uint64(len(b)))
	}

	r := bytes.NewReader(b[:headerSize])
	for _, field := range []interface{}{
		&h.Format,
		&h.Width,
		&h.Height,
		&h.Pixels.Offset, &h.Pixels.Size,
		&h.Palette.Offset, &h.Palette.Size,
		&h.Spans.Offset, &h.Spans.Size,
		&h.Rowheads.Offset, &h.Rowheads.Size,
	} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return h, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
		}
	}

	return h, nil
}

// Format returns the format discriminator of the PIC file in b
func Format(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, newError(ErrMalformedHeader, "length", uint64(len(b)))
	}
	return binary.LittleEndian.Uint16(b), nil
}

type regions struct {
	pixels   []byte
	palette  []byte
	spans    []byte
	rowheads []byte
}

func extractRegions(b []byte, h Header) (*regions, error) {
	length := uint64(len(b))

	for _, r := range []struct {
		name   string
		region Region
	}{
		{"pixels", h.Pixels},
		{"palette", h.Palette},
		{"spans", h.Spans},
		{"rowheads", h.Rowheads},
	} {
		if r.region.end() > length {
			return nil, newError(ErrRegionOutOfBounds, r.name, r.region.end())
		}
	}

	if h.Spans.Offset == 0 || uint64(h.Spans.Offset) >= length {
		return nil, newError(ErrRegionOutOfBounds, "spans offset", uint64(h.Spans.Offset))
	}

	if h.Spans.Size%spanSize != 0 || h.Spans.Size == 0 {
		return nil, newError(ErrInvalidSpanTable, "size", uint64(h.Spans.Size))
	}

	// The pixel data is never smaller than the file less its header
	if headerSize+uint64(h.Pixels.Size) > length {
		return nil, newError(ErrRegionOutOfBounds, "pixels size", uint64(h.Pixels.Size))
	}

	slice := func(r Region) []byte {
		return b[r.Offset:r.end()]
	}

	return &regions{
		pixels:   slice(h.Pixels),
		palette:  slice(h.Palette),
		spans:    slice(h.Spans),
		rowheads: slice(h.Rowheads),
	}, nil
}
