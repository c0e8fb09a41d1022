package pic

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/ioutil"

	"github.com/bodgit/openfa/pal"
)

const (
	// Span row and column fields are 16-bit so nothing beyond this can be
	// drawn
	maxDimension = 1 << 16

	// The raster is allocated before any span is read so its area is
	// capped, 4096 by 4096 is far beyond anything shipped with the games
	maxPixels = 1 << 24
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Span is a run of pixels on a single row, from Start to End inclusive. The
// palette indices for the run start at Index within the pixel data.
type Span struct {
	Row   uint32
	Start uint32
	End   uint32
	Index int
}

func readSpan(b []byte) Span {
	return Span{
		Row:   uint32(binary.LittleEndian.Uint16(b[0:2])),
		Start: uint32(binary.LittleEndian.Uint16(b[2:4])),
		End:   uint32(binary.LittleEndian.Uint16(b[4:6])),
		Index: int(binary.LittleEndian.Uint32(b[6:10])),
	}
}

// Stats summarises a decoded image. MinIndex and MaxIndex are only
// meaningful if Pixels is non-zero.
type Stats struct {
	Spans    int
	Pixels   int
	MinIndex uint8
	MaxIndex uint8
}

func (s *Stats) add(index uint8) {
	if s.Pixels == 0 || index < s.MinIndex {
		s.MinIndex = index
	}
	if s.Pixels == 0 || index > s.MaxIndex {
		s.MaxIndex = index
	}
	s.Pixels++
}

// Info describes a PIC file without decoding any pixels
type Info struct {
	Header
	// SpanCount is the number of spans, not counting the terminator
	SpanCount int
	// Colors is the number of colors in the embedded palette
	Colors int
}

type decoder struct {
	data []byte

	header  Header
	regions *regions

	local  *pal.Palette
	system *pal.Palette

	image *image.RGBA
	stats Stats
}

func (d *decoder) readHeader() error {
	h, err := ParseHeader(d.data)
	if err != nil {
		return err
	}
	if h.Format != FormatSpans {
		return newError(ErrUnsupportedFormat, "format", uint64(h.Format))
	}
	if h.Width > maxDimension {
		return newError(ErrMalformedHeader, "width", uint64(h.Width))
	}
	if h.Height > maxDimension {
		return newError(ErrMalformedHeader, "height", uint64(h.Height))
	}
	if area := uint64(h.Width) * uint64(h.Height); area > maxPixels {
		return newError(ErrMalformedHeader, "area", area)
	}
	d.header = h
	return nil
}

func (d *decoder) readRegions() error {
	r, err := extractRegions(d.data, d.header)
	if err != nil {
		return err
	}
	d.regions = r

	if d.local, err = pal.FromBytes(r.palette); err != nil {
		return fmt.Errorf("%w: %w", ErrPalette, err)
	}

	return nil
}

func (d *decoder) spanCount() int {
	// The last record is a terminator
	return len(d.regions.spans)/spanSize - 1
}

func (d *decoder) span(i int) (Span, error) {
	s := readSpan(d.regions.spans[i*spanSize:])
	pixels := uint64(d.header.Pixels.Size)

	switch {
	case s.Row >= d.header.Height:
		return s, newError(ErrSpanBounds, "row", uint64(s.Row))
	case uint64(s.Index) >= pixels:
		return s, newError(ErrSpanBounds, "index", uint64(s.Index))
	case s.Start >= d.header.Width:
		return s, newError(ErrSpanBounds, "start", uint64(s.Start))
	case s.End >= d.header.Width:
		return s, newError(ErrSpanBounds, "end", uint64(s.End))
	case s.Start > s.End:
		return s, newError(ErrSpanBounds, "start", uint64(s.Start))
	case uint64(s.Index)+uint64(s.End-s.Start) >= pixels:
		return s, newError(ErrSpanBounds, "index", uint64(s.Index)+uint64(s.End-s.Start))
	}

	return s, nil
}

func (d *decoder) resolve(index uint8) (color.RGBA, error) {
	p := d.system
	if int(index) < d.local.ColorCount() {
		p = d.local
	}
	c, err := p.RGBA(int(index))
	if err != nil {
		return c, fmt.Errorf("%w: %w", ErrPalette, err)
	}
	return c, nil
}

func (d *decoder) decode(b []byte, system *pal.Palette) error {
	d.data = b
	d.system = system

	if err := d.readHeader(); err != nil {
		return err
	}

	if err := d.readRegions(); err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, int(d.header.Width), int(d.header.Height)))

	for i := 0; i < d.spanCount(); i++ {
		s, err := d.span(i)
		if err != nil {
			return err
		}

		for j, x := 0, s.Start; x <= s.End; j, x = j+1, x+1 {
			index := d.regions.pixels[s.Index+j]
			d.stats.add(index)

			c, err := d.resolve(index)
			if err != nil {
				return err
			}
			img.SetRGBA(int(x), int(s.Row), c)
		}
		d.stats.Spans++
	}

	d.image = img

	return nil
}

// DecodeBytes decodes the PIC file in b, using system to resolve any color
// not in the embedded palette. system may be nil if every index is known to
// be covered by the embedded palette.
func DecodeBytes(b []byte, system *pal.Palette) (*image.RGBA, Stats, error) {
	var d decoder
	if err := d.decode(b, system); err != nil {
		return nil, Stats{}, err
	}
	return d.image, d.stats, nil
}

// Decode reads a PIC file from r and returns it as an image.Image.
func Decode(r io.Reader, system *pal.Palette) (image.Image, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, _, err := DecodeBytes(b, system)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeConfig returns the color model and dimensions of a PIC file without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var tmp [headerSize]byte
	if err := readFull(r, tmp[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return image.Config{}, err
		}
		return image.Config{}, ErrMalformedHeader
	}

	d := decoder{data: tmp[:]}
	if err := d.readHeader(); err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      int(d.header.Width),
		Height:     int(d.header.Height),
	}, nil
}

// Inspect validates the header and regions of the PIC file in b and
// describes it without decoding any spans.
func Inspect(b []byte) (Info, error) {
	d := decoder{data: b}
	if err := d.readHeader(); err != nil {
		return Info{}, err
	}
	if err := d.readRegions(); err != nil {
		return Info{}, err
	}
	return Info{
		Header:    d.header,
		SpanCount: d.spanCount(),
		Colors:    d.local.ColorCount(),
	}, nil
}
