package openfa

import (
	"bytes"
	"io/ioutil"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ReadSource returns the contents of file, decompressing it first if it is a
// zstd frame
func ReadSource(file string) ([]byte, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(b, zstdMagic) {
		return b, nil
	}

	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return d.DecodeAll(b, nil)
}
