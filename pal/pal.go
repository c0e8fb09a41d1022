/*
Package pal implements the VGA style palettes used by PIC images and by the
shared PALETTE.PAL file.

A palette is a packed run of three byte entries, one byte each for red, green
and blue. Each component only uses the lower six bits as per the VGA DAC so it
is scaled up to eight bits when read. There is no header; the number of colors
is implied by the length of the data.
*/
package pal

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/ioutil"
)

const (
	entrySize = 3
	maxColors = 256

	// Components are 6-bit VGA DAC values
	maxComponent = 0x3f
)

var (
	// ErrMalformed is returned when the palette data cannot describe a
	// whole number of entries
	ErrMalformed = errors.New("pal: malformed palette")

	// ErrIndexOutOfRange is returned when looking up a color the palette
	// doesn't have
	ErrIndexOutOfRange = errors.New("pal: index out of range")
)

// Palette is a decoded palette. It implements the encoding.BinaryMarshaler
// and encoding.BinaryUnmarshaler interfaces.
type Palette struct {
	entries []color.RGBA
}

// FromBytes decodes a palette from b
func FromBytes(b []byte) (*Palette, error) {
	p := new(Palette)
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return p, nil
}

// Must is a helper that wraps a call to FromBytes and panics if the error is
// non-nil
func Must(b []byte) *Palette {
	p, err := FromBytes(b)
	if err != nil {
		panic(err)
	}
	return p
}

// Decode reads the whole of r and decodes it as a palette
func Decode(r io.Reader) (*Palette, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromBytes(b)
}

// ColorCount returns the number of colors in the palette
func (p *Palette) ColorCount() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// RGBA returns the color at index i
func (p *Palette) RGBA(i int) (color.RGBA, error) {
	if i < 0 || i >= p.ColorCount() {
		return color.RGBA{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, p.ColorCount())
	}
	return p.entries[i], nil
}

// Colors returns the palette as a color.Palette
func (p *Palette) Colors() color.Palette {
	c := make(color.Palette, p.ColorCount())
	for i := range c {
		c[i] = p.entries[i]
	}
	return c
}

// MarshalBinary encodes the palette into binary form and returns the result
func (p *Palette) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	for _, c := range p.entries {
		if _, err := b.Write([]byte{c.R >> 2, c.G >> 2, c.B >> 2}); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes the palette from binary form
func (p *Palette) UnmarshalBinary(b []byte) error {
	if len(b)%entrySize != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformed, len(b), entrySize)
	}
	if len(b)/entrySize > maxColors {
		return fmt.Errorf("%w: %d colors", ErrMalformed, len(b)/entrySize)
	}

	for i, c := range b {
		if c > maxComponent {
			return fmt.Errorf("%w: component %#02x at offset %d exceeds %#02x", ErrMalformed, c, i, maxComponent)
		}
	}

	p.entries = make([]color.RGBA, len(b)/entrySize)
	for i := range p.entries {
		p.entries[i] = color.RGBA{
			b[i*entrySize+0] << 2,
			b[i*entrySize+1] << 2,
			b[i*entrySize+2] << 2,
			0xff,
		}
	}
	return nil
}
