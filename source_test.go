package openfa

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	data := testPicture().Bytes()

	plain := filepath.Join(dir, "plain.pic")
	writeFile(t, plain, data)

	compressed := filepath.Join(dir, "compressed.pic.zst")
	writeFile(t, compressed, compress(t, data))

	for _, file := range []string{plain, compressed} {
		b, err := ReadSource(file)
		require.NoError(t, err)
		assert.Equal(t, data, b)
	}

	corrupt := filepath.Join(dir, "corrupt.pic.zst")
	writeFile(t, corrupt, append(append([]byte{}, zstdMagic...), 0xff, 0xff, 0xff))

	_, err := ReadSource(corrupt)
	assert.Error(t, err)

	_, err = ReadSource(filepath.Join(dir, "missing.pic"))
	assert.Error(t, err)
}
