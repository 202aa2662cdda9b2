package restorer

import (
	"context"
	"io"
	"iter"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backup"
	"github.com/vandry/get-longhorn-backup/internal/codec"
	"github.com/vandry/get-longhorn-backup/internal/debug"
)

// Chunk is the decompressed content of one block.
type Chunk struct {
	// Index of the block in the manifest.
	Index  int
	Offset uint64
	// Data is only valid until the next call to Stream.Next and must not be
	// modified.
	Data []byte
	// Cached is true if the block was served from the BlockCache.
	Cached bool
	// Gap is the discontinuity before this chunk, if one was tolerated.
	Gap *SkippedData
}

// End returns the offset of the first byte after the chunk.
func (c Chunk) End() uint64 {
	return c.Offset + uint64(len(c.Data))
}

// StreamOptions configure a Stream.
type StreamOptions struct {
	Gaps GapPolicy
	// Warn is called for every discontinuity tolerated under GapWarn.
	Warn func(*SkippedData)
	// Cache, if set, is consulted before fetching a block.
	Cache *BlockCache
}

// Stream fetches and decompresses the blocks of a backup one at a time, in
// manifest order. A Stream is forward-only: once consumed it cannot be
// restarted. It is not safe for concurrent use.
type Stream struct {
	be     backend.Backend
	root   string
	blocks []backup.Block
	dec    codec.Decoder
	opts   StreamOptions

	next     int
	expected uint64
	gaps     int
	err      error

	// buffers reused between blocks
	stored, plain []byte
}

// NewStream returns a stream over blocks, which are stored below root in be
// and compressed with dec.
func NewStream(be backend.Backend, root string, blocks []backup.Block, dec codec.Decoder, opts StreamOptions) *Stream {
	return &Stream{
		be:     be,
		root:   root,
		blocks: blocks,
		dec:    dec,
		opts:   opts,
	}
}

// Next returns the next chunk. After the last block it returns io.EOF. Once
// Next has returned an error, all later calls return the same error.
func (s *Stream) Next(ctx context.Context) (Chunk, error) {
	if s.err != nil {
		return Chunk{}, s.err
	}

	if s.next >= len(s.blocks) {
		s.err = io.EOF
		return Chunk{}, s.err
	}

	i := s.next
	blk := s.blocks[i]
	s.next++

	var gap *SkippedData
	if blk.Offset != s.expected {
		gap = &SkippedData{Block: i, Expected: s.expected, Found: blk.Offset}
		s.gaps++
		debug.Log("%v", gap)

		switch s.opts.Gaps {
		case GapError:
			s.err = gap
			return Chunk{}, s.err
		case GapWarn:
			if s.opts.Warn != nil {
				s.opts.Warn(gap)
			}
		}
	}

	data, cached, err := s.load(ctx, i, blk)
	if err != nil {
		s.err = err
		return Chunk{}, s.err
	}

	c := Chunk{Index: i, Offset: blk.Offset, Data: data, Cached: cached, Gap: gap}
	s.expected = c.End()
	return c, nil
}

func (s *Stream) load(ctx context.Context, i int, blk backup.Block) ([]byte, bool, error) {
	if data, ok := s.opts.Cache.Get(blk.Checksum); ok {
		debug.Log("block %d (%v) served from cache", i, blk.Checksum)
		return data, true, nil
	}

	name := backup.BlockName(s.root, blk.Checksum)

	buf, err := backend.LoadAll(ctx, s.stored, s.be, name)
	if err != nil {
		return nil, false, &RemoteError{Block: i, Name: name, Err: err}
	}
	s.stored = buf

	plain, err := codec.Decode(s.dec, s.plain[:0], buf)
	if err != nil {
		return nil, false, &DecodeError{Block: i, Name: name, Err: err}
	}
	s.plain = plain

	debug.Log("block %d (%v): %d bytes stored, %d bytes decoded", i, name, len(buf), len(plain))

	s.opts.Cache.Add(blk.Checksum, plain)
	return plain, false, nil
}

// Gaps returns the number of discontinuities found so far.
func (s *Stream) Gaps() int {
	return s.gaps
}

// All returns an iterator over the remaining chunks. Iteration stops after
// the first error, which is yielded with a zero Chunk.
func (s *Stream) All(ctx context.Context) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		for {
			c, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}
