package restorer

import (
	"math"
	"os"

	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// fileWriter performs positioned writes of chunks into the destination file.
type fileWriter struct {
	f      *os.File
	sparse bool

	// end of the furthest chunk written so far
	extent uint64
	// bytes actually written, excluding skipped zeros
	written uint64
	// ranges written, for verification
	ranges []writtenRange
	verify bool
}

// createFile creates the destination file or truncates an existing one.
func createFile(path string, sparse, verify bool) (*fileWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, &IOError{Block: -1, Err: errors.WithStack(err)}
	}

	return &fileWriter{f: f, sparse: sparse, verify: verify}, nil
}

// WriteChunk writes the chunk data at its offset.
func (w *fileWriter) WriteChunk(c Chunk) error {
	if c.Offset > math.MaxInt64-uint64(len(c.Data)) {
		return &IOError{Block: c.Index, Offset: c.Offset, Err: errors.New("offset exceeds the maximum file size")}
	}

	n, err := w.writeAt(c.Data, int64(c.Offset))
	if err != nil {
		return &IOError{Block: c.Index, Offset: c.Offset, Err: errors.WithStack(err)}
	}

	w.written += uint64(n)
	if c.End() > w.extent {
		w.extent = c.End()
	}
	if w.verify {
		w.ranges = append(w.ranges, newWrittenRange(c))
	}
	return nil
}

// writeAt writes p at offset and returns the number of bytes written to the
// file. In sparse mode the all-zero prefix of p is skipped, but only when p
// starts at or past the extent: an earlier chunk may have put non-zero data
// under it, and those bytes must be overwritten.
func (w *fileWriter) writeAt(p []byte, offset int64) (int, error) {
	if !w.sparse || uint64(offset) < w.extent {
		return w.f.WriteAt(p, offset)
	}

	skipped := zeroPrefixLen(p)
	p = p[skipped:]
	offset += int64(skipped)

	if len(p) == 0 {
		// All zeros. The final Truncate extends the file if needed.
		return 0, nil
	}
	return w.f.WriteAt(p, offset)
}

// Close finishes the file. In sparse mode the file is extended to the end of
// the last chunk, which may have been skipped. Close must only be called
// after all chunks were written successfully; use Abort otherwise.
func (w *fileWriter) Close() error {
	if w.sparse {
		fi, err := w.f.Stat()
		if err == nil && uint64(fi.Size()) < w.extent {
			debug.Log("extending %v to %d bytes", w.f.Name(), w.extent)
			err = w.f.Truncate(int64(w.extent))
		}
		if err != nil {
			_ = w.f.Close()
			return &IOError{Block: -1, Err: errors.WithStack(err)}
		}
	}

	if err := w.f.Close(); err != nil {
		return &IOError{Block: -1, Err: errors.WithStack(err)}
	}
	return nil
}

// Abort closes the file, leaving whatever was written so far.
func (w *fileWriter) Abort() {
	_ = w.f.Close()
}
