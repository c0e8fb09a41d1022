package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bodgit/openfa/internal/pictest"
	"github.com/bodgit/openfa/pic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo(t *testing.T) {
	dir := t.TempDir()

	p := pictest.Picture{
		Format:  pic.FormatSpans,
		Width:   2,
		Height:  1,
		Pixels:  []byte{5, 7},
		Palette: pictest.Palette(10),
		Spans:   []pictest.Span{{Row: 0, Start: 0, End: 1, Index: 0}},
	}
	file := filepath.Join(dir, "test.pic")
	require.NoError(t, ioutil.WriteFile(file, p.Bytes(), 0644))

	b := new(bytes.Buffer)
	require.NoError(t, info(b, file))
	assert.Regexp(t, `test\.pic\s*:\s+30\s+2x1\s+:\s+2 in\s+1 spans\n$`, b.String())

	p.Format = 2
	require.NoError(t, ioutil.WriteFile(file, p.Bytes(), 0644))
	assert.ErrorIs(t, info(b, file), pic.ErrUnsupportedFormat)
}

func TestLoadPalette(t *testing.T) {
	_, err := loadPalette("")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "PALETTE.PAL")
	require.NoError(t, ioutil.WriteFile(file, pictest.Palette(256), 0644))

	p, err := loadPalette(file)
	require.NoError(t, err)
	assert.Equal(t, 256, p.ColorCount())
}
