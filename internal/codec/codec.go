// Package codec provides the decompressors for block objects, looked up by the
// compression method name recorded in a backup manifest.
package codec

import (
	"bytes"
	"io"
	"sort"

	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// Decoder turns a reader of compressed bytes into a reader of decompressed
// bytes. Reading from the returned reader fails if the compressed stream is
// truncated, malformed or fails an integrity check of the format.
type Decoder interface {
	Name() string
	NewReader(rd io.Reader) (io.Reader, error)
}

var registry = map[string]Decoder{}

func register(d Decoder) {
	registry[d.Name()] = d
}

// ErrUnsupported is returned by Lookup for unknown compression methods.
var ErrUnsupported = errors.New("unsupported compression method")

// Lookup returns the decoder for the compression method name. Names are case
// sensitive.
func Lookup(name string) (Decoder, error) {
	d, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "%q (supported: %v)", name, Names())
	}
	return d, nil
}

// Names returns the sorted names of all supported compression methods.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode decompresses buf completely and appends the result to dst.
func Decode(d Decoder, dst []byte, buf []byte) ([]byte, error) {
	rd, err := d.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	wr := bytes.NewBuffer(dst)
	if _, err := io.Copy(wr, rd); err != nil {
		return nil, err
	}
	return wr.Bytes(), nil
}
