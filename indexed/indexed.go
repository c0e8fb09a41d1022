/*
Package indexed converts decoded images back into paletted images so they can
be written out as compact indexed PNG files.

If the image already fits within the requested number of colors the palette
is exact, otherwise it is reduced with a median cut quantizer.
*/
package indexed

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
)

// MaxColors is the most colors a paletted image can hold
const MaxColors = 256

var errBadColors = errors.New("indexed: colors must be between 1 and 256")

func countColors(m image.Image) map[color.RGBA]int {
	colors := make(map[color.RGBA]int)
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			colors[color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)]++
		}
	}
	return colors
}

// Most frequent colors first, ties broken on value so the result is stable
func uniqueColors(m image.Image) color.Palette {
	h := countColors(m)
	keys := make([]color.RGBA, 0, len(h))
	for c := range h {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool {
		if h[keys[i]] != h[keys[j]] {
			return h[keys[i]] > h[keys[j]]
		}
		a, b := keys[i], keys[j]
		return uint32(a.R)<<24|uint32(a.G)<<16|uint32(a.B)<<8|uint32(a.A) < uint32(b.R)<<24|uint32(b.G)<<16|uint32(b.B)<<8|uint32(b.A)
	})
	p := make(color.Palette, len(keys))
	for i, c := range keys {
		p[i] = c
	}
	return p
}

// Convert returns m as a paletted image using no more than colors colors
func Convert(m image.Image, colors int) (*image.Paletted, error) {
	if colors < 1 || colors > MaxColors {
		return nil, errBadColors
	}

	b := m.Bounds()

	p := uniqueColors(m)
	if len(p) > colors {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, colors), m)
	}

	pm := image.NewPaletted(b, p)
	draw.Draw(pm, b, m, b.Min, draw.Src)

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	return pm, nil
}
