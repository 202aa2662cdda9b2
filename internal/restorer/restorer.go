package restorer

import (
	"context"
	"time"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backup"
	"github.com/vandry/get-longhorn-backup/internal/debug"
	restoreui "github.com/vandry/get-longhorn-backup/internal/ui/restore"
)

// Options control a restore run.
type Options struct {
	Gaps GapPolicy
	// Sparse skips writing all-zero prefixes of blocks.
	Sparse bool
	// Verify reads back the destination file after the restore.
	Verify bool
	// DryRun fetches and decodes all blocks without writing anything.
	DryRun bool
	// CacheSize is the size of the decoded block cache in bytes, 0 disables it.
	CacheSize int

	// Warn is called for every tolerated discontinuity.
	Warn     func(error)
	Progress *restoreui.Progress
}

// Summary describes a finished restore.
type Summary struct {
	Blocks        int
	CachedBlocks  int
	BytesRestored uint64
	BytesWritten  uint64
	BytesVerified uint64
	Extent        uint64
	Gaps          int
	Duration      time.Duration
}

// Restorer restores backups stored in a backend.
type Restorer struct {
	be   backend.Backend
	opts Options
}

// NewRestorer creates a restorer for backups in be.
func NewRestorer(be backend.Backend, opts Options) *Restorer {
	return &Restorer{be: be, opts: opts}
}

// Restore restores the backup described by the manifest stored under
// manifestName into the file dst. The destination is only created once the
// manifest has been fetched and validated. If an error occurs while blocks
// are restored, dst is left partially written.
func (r *Restorer) Restore(ctx context.Context, manifestName, dst string) (Summary, error) {
	start := time.Now()
	var summary Summary

	root, err := backup.Root(manifestName)
	if err != nil {
		return summary, err
	}

	m, err := r.loadManifest(ctx, manifestName)
	if err != nil {
		return summary, err
	}
	debug.Log("manifest %v: %d blocks, compression %v, root %v", manifestName, m.Size(), m.CompressionMethod, root)

	r.opts.Progress.Start(m.Size())

	var wr *fileWriter
	if !r.opts.DryRun {
		wr, err = createFile(dst, r.opts.Sparse, r.opts.Verify)
		if err != nil {
			return summary, err
		}
	}

	sopts := StreamOptions{
		Gaps:  r.opts.Gaps,
		Cache: NewBlockCache(r.opts.CacheSize),
	}
	if r.opts.Warn != nil {
		sopts.Warn = func(gap *SkippedData) { r.opts.Warn(gap) }
	}
	stream := NewStream(r.be, root, m.Blocks, m.Decoder(), sopts)

	for c, err := range stream.All(ctx) {
		if err != nil {
			if wr != nil {
				wr.Abort()
			}
			summary.Gaps = stream.Gaps()
			summary.Duration = time.Since(start)
			return summary, err
		}

		if wr != nil {
			if err := wr.WriteChunk(c); err != nil {
				wr.Abort()
				summary.Gaps = stream.Gaps()
				summary.Duration = time.Since(start)
				return summary, err
			}
		}

		if c.Gap != nil {
			r.opts.Progress.AddGap()
		}
		summary.Blocks++
		if c.Cached {
			summary.CachedBlocks++
		}
		summary.BytesRestored += uint64(len(c.Data))
		summary.Extent = max(summary.Extent, c.End())
		r.opts.Progress.AddBlock(uint64(len(c.Data)), c.Cached)
	}

	summary.Gaps = stream.Gaps()

	if wr != nil {
		summary.BytesWritten = wr.written
		if err := wr.Close(); err != nil {
			return summary, err
		}

		if r.opts.Verify {
			r.opts.Progress.StartVerify()
			summary.BytesVerified, err = verifyFile(dst, wr.ranges)
			r.opts.Progress.AddVerified(summary.BytesVerified)
			if err != nil {
				summary.Duration = time.Since(start)
				return summary, err
			}
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

func (r *Restorer) loadManifest(ctx context.Context, name string) (*backup.Manifest, error) {
	buf, err := backend.LoadAll(ctx, nil, r.be, name)
	if err != nil {
		return nil, &RemoteError{Block: -1, Name: name, Err: err}
	}

	return backup.Parse(buf)
}
