package codec_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/vandry/get-longhorn-backup/internal/codec"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	rtest "github.com/vandry/get-longhorn-backup/internal/test"
)

func TestLookup(t *testing.T) {
	d, err := codec.Lookup("lz4")
	rtest.OK(t, err)
	rtest.Equals(t, codec.LZ4, d.Name())

	for _, name := range []string{"gzip", "none", "LZ4", "", "zstd"} {
		_, err := codec.Lookup(name)
		rtest.Assert(t, errors.Is(err, codec.ErrUnsupported), "expected ErrUnsupported for %q, got %v", name, err)
	}

	rtest.Equals(t, []string{"lz4"}, codec.Names())
}

func TestLZ4RoundTrip(t *testing.T) {
	d, err := codec.Lookup(codec.LZ4)
	rtest.OK(t, err)

	for i, size := range []int{0, 1, 100, 64 * 1024, 2*1024*1024 + 17} {
		data := rtest.Random(i, size)
		compressed := codec.TestCompressLZ4(t, data)

		buf, err := codec.Decode(d, nil, compressed)
		rtest.OK(t, err)
		rtest.Assert(t, bytes.Equal(data, buf), "size %d: decoded data does not match", size)
	}
}

func TestLZ4DecodeAppends(t *testing.T) {
	d, _ := codec.Lookup(codec.LZ4)
	compressed := codec.TestCompressLZ4(t, []byte("world"))

	buf, err := codec.Decode(d, []byte("hello "), compressed)
	rtest.OK(t, err)
	rtest.Equals(t, []byte("hello world"), buf)
}

func TestLZ4Truncated(t *testing.T) {
	d, _ := codec.Lookup(codec.LZ4)
	data := rtest.Random(7, 300*1024)
	compressed := codec.TestCompressLZ4(t, data)

	// cut inside a block, before the end mark and right before the content checksum
	for _, cut := range []int{0, 3, 10, len(compressed) / 2, len(compressed) - 8, len(compressed) - 1} {
		_, err := codec.Decode(d, nil, compressed[:cut])
		rtest.Assert(t, err != nil, "expected error for input truncated to %d of %d bytes", cut, len(compressed))
	}
}

func TestLZ4Corrupt(t *testing.T) {
	d, _ := codec.Lookup(codec.LZ4)
	data := bytes.Repeat([]byte("longhorn backup block "), 10000)
	compressed := codec.TestCompressLZ4(t, data)

	corrupt := bytes.Clone(compressed)
	corrupt[len(corrupt)/2] ^= 0xff
	_, err := codec.Decode(d, nil, corrupt)
	rtest.Assert(t, err != nil, "expected error for corrupted frame")

	_, err = codec.Decode(d, nil, []byte("this is not an lz4 frame at all"))
	rtest.Assert(t, err != nil, "expected error for garbage input")
}

func TestLZ4Streaming(t *testing.T) {
	d, _ := codec.Lookup(codec.LZ4)
	data := rtest.Random(3, 100000)
	compressed := codec.TestCompressLZ4(t, data)

	rd, err := d.NewReader(bytes.NewReader(compressed))
	rtest.OK(t, err)

	buf, err := io.ReadAll(rd)
	rtest.OK(t, err)
	rtest.Equals(t, data, buf)
}
