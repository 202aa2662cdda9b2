package restorer

import (
	"context"
	"fmt"

	"github.com/vandry/get-longhorn-backup/internal/backup"
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// Kind classifies the errors of a restore run.
type Kind int

const (
	KindOther Kind = iota
	KindManifest
	KindPath
	KindRemote
	KindDecode
	KindSkippedData
	KindIO
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindManifest:
		return "manifest"
	case KindPath:
		return "path"
	case KindRemote:
		return "remote"
	case KindDecode:
		return "decode"
	case KindSkippedData:
		return "skipped data"
	case KindIO:
		return "io"
	case KindCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// KindOf returns the kind of err. Cancellation of the context takes
// precedence over the error type it is wrapped in.
func KindOf(err error) Kind {
	var (
		merr *backup.ManifestError
		perr *backup.PathError
		rerr *RemoteError
		derr *DecodeError
		serr *SkippedData
		ierr *IOError
	)

	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &merr):
		return KindManifest
	case errors.As(err, &perr):
		return KindPath
	case errors.As(err, &serr):
		return KindSkippedData
	case errors.As(err, &rerr):
		return KindRemote
	case errors.As(err, &derr):
		return KindDecode
	case errors.As(err, &ierr):
		return KindIO
	}
	return KindOther
}

// RemoteError is returned when an object cannot be fetched from the store.
// Block is -1 for the manifest.
type RemoteError struct {
	Block int
	Name  string
	Err   error
}

func (e *RemoteError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("fetch manifest %v: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("fetch block %d (%v): %v", e.Block, e.Name, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// DecodeError is returned when a block object is truncated, malformed or
// fails the integrity checks of the compression format.
type DecodeError struct {
	Block int
	Name  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode block %d (%v): %v", e.Block, e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SkippedData reports that a block does not start where the previous one
// ended. Found > Expected is a hole in the backup, Found < Expected means the
// block overlaps data restored before.
type SkippedData struct {
	Block    int
	Expected uint64
	Found    uint64
}

func (e *SkippedData) Error() string {
	return fmt.Sprintf("gap in data at block %d: expected to find a block for offset %d, found %d",
		e.Block, e.Expected, e.Found)
}

// Overlap returns true if the block starts before the end of the previous one.
func (e *SkippedData) Overlap() bool {
	return e.Found < e.Expected
}

// IOError is returned when the destination file cannot be created, written
// or verified. Block is -1 for failures not related to a single block.
type IOError struct {
	Block  int
	Offset uint64
	Err    error
}

func (e *IOError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("write destination: %v", e.Err)
	}
	return fmt.Sprintf("write block %d at offset %d: %v", e.Block, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
