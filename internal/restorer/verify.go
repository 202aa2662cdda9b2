package restorer

import (
	"io"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// writtenRange records what a chunk wrote, so that it can be checked after
// the restore has finished.
type writtenRange struct {
	block  int
	offset uint64
	length int
	digest uint64
}

func newWrittenRange(c Chunk) writtenRange {
	return writtenRange{
		block:  c.Index,
		offset: c.Offset,
		length: len(c.Data),
		digest: xxhash.Sum64(c.Data),
	}
}

// verifyFile reads back every range in ranges from the file at path and
// compares its digest. Later chunks that overlap an earlier one take
// precedence, so only the last write to a range is expected to survive.
func verifyFile(path string, ranges []writtenRange) (verified uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &IOError{Block: -1, Err: errors.WithStack(err)}
	}
	defer func() {
		_ = f.Close()
	}()

	// minStart[i] is the lowest offset of all ranges after i
	minStart := make([]uint64, len(ranges))
	low := uint64(math.MaxUint64)
	for i := len(ranges) - 1; i >= 0; i-- {
		minStart[i] = low
		low = min(low, ranges[i].offset)
	}

	var buf []byte
	for i, r := range ranges {
		if minStart[i] < r.offset+uint64(r.length) && overwritten(r, ranges[i+1:]) {
			debug.Log("block %d was partially overwritten, not verified", r.block)
			continue
		}

		if cap(buf) < r.length {
			buf = make([]byte, r.length)
		}
		buf = buf[:r.length]

		_, err := f.ReadAt(buf, int64(r.offset))
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return verified, &IOError{Block: r.block, Offset: r.offset, Err: errors.Wrap(err, "verify")}
		}

		if xxhash.Sum64(buf) != r.digest {
			return verified, &IOError{Block: r.block, Offset: r.offset,
				Err: errors.Errorf("verify: content of %d bytes differs from the restored block", r.length)}
		}
		verified += uint64(r.length)
	}

	return verified, nil
}

func overwritten(r writtenRange, later []writtenRange) bool {
	end := r.offset + uint64(r.length)
	for _, l := range later {
		if l.length > 0 && l.offset < end && r.offset < l.offset+uint64(l.length) {
			return true
		}
	}
	return false
}
