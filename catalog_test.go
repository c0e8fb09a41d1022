package openfa

import (
	"errors"
	"testing"

	"github.com/bodgit/openfa/pic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogDB(t *testing.T) {
	db := newCatalog(t)

	run, err := db.NewRun("PALETTE.PAL")
	require.NoError(t, err)
	require.Len(t, run, 36)

	info := pic.Info{
		Header: pic.Header{
			Format: pic.FormatSpans,
			Width:  320,
			Height: 200,
		},
		SpanCount: 10,
		Colors:    16,
	}
	stats := pic.Stats{Spans: 10, Pixels: 100, MinIndex: 1, MaxIndex: 200}

	id, err := db.AddPicture("ABCD", info, stats)
	require.NoError(t, err)

	again, err := db.AddPicture("ABCD", info, stats)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	other, err := db.AddPicture("EF01", info, pic.Stats{})
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	ok, err := db.Converted("ABCD", "a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.AddConversion(run, "ABCD", "a.pic", "a.png", id, nil))
	require.NoError(t, db.AddConversion(run, "2345", "b.pic", "b.png", 0, errors.New("boom")))

	ok, err = db.Converted("ABCD", "a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.Converted("ABCD", "elsewhere.png")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.Converted("2345", "b.png")
	require.NoError(t, err)
	assert.False(t, ok)

	converted, failed, err := db.RunSummary(run)
	require.NoError(t, err)
	assert.Equal(t, 1, converted)
	assert.Equal(t, 1, failed)

	converted, failed, err = db.RunSummary("unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, converted)
	assert.Equal(t, 0, failed)
}

func TestCatalogDBUnknownRun(t *testing.T) {
	db := newCatalog(t)

	// Foreign keys are enforced
	assert.Error(t, db.AddConversion("unknown", "ABCD", "a.pic", "a.png", 0, nil))
}
