package codec

import (
	"bytes"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// TestCompressLZ4 returns data compressed as a single LZ4 frame with a
// content checksum, the way block objects are stored.
func TestCompressLZ4(t testing.TB, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if err := zw.Apply(lz4.ChecksumOption(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
