package codec

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 is the name of the LZ4 frame format in backup manifests.
const LZ4 = "lz4"

func init() {
	register(lz4Decoder{})
}

type lz4Decoder struct{}

func (lz4Decoder) Name() string { return LZ4 }

// NewReader returns a reader for a single LZ4 frame. Block and content
// checksums present in the frame are verified while reading.
func (lz4Decoder) NewReader(rd io.Reader) (io.Reader, error) {
	src := &eofReader{rd: rd}
	return &lz4Reader{zr: lz4.NewReader(src), src: src}, nil
}

// eofReader records whether the compressed input ran out. The frame reader
// only issues exact-size reads, so a complete frame never reaches EOF.
type eofReader struct {
	rd  io.Reader
	eof bool
}

func (r *eofReader) Read(p []byte) (int, error) {
	n, err := r.rd.Read(p)
	if err == io.EOF {
		r.eof = true
	}
	return n, err
}

type lz4Reader struct {
	zr  *lz4.Reader
	src *eofReader
}

// Read returns io.ErrUnexpectedEOF when the input stops at a block boundary
// before the end mark of the frame.
func (r *lz4Reader) Read(p []byte) (int, error) {
	n, err := r.zr.Read(p)
	if err == io.EOF && r.src.eof {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}
