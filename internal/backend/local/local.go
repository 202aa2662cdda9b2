package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"

	"github.com/cenkalti/backoff/v4"
)

// Local is a backend in a local directory.
type Local struct {
	Config
	root string
}

// ensure statically that *Local implements backend.Backend.
var _ backend.Backend = &Local{}

// Open opens the local backend as specified by config. The bucket directory
// must exist.
func Open(_ context.Context, cfg Config) (*Local, error) {
	root := filepath.Join(cfg.Path, cfg.Bucket)
	debug.Log("open local backend at %v", root)

	fi, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "Stat")
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("%v is not a directory", root)
	}

	return &Local{Config: cfg, root: root}, nil
}

// Location returns this backend's location (the directory name).
func (b *Local) Location() string {
	return b.root
}

// IsNotExist returns true if the error is caused by a non existing file.
func (b *Local) IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func (b *Local) IsPermanentError(err error) bool {
	return b.IsNotExist(err) || errors.Is(err, os.ErrPermission)
}

// Filename returns the path in the local filesystem for the object name.
func (b *Local) Filename(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", errors.Errorf("invalid object name %q", name)
	}
	return filepath.Join(b.root, rel), nil
}

// Load runs fn with a reader that yields the contents of the object name.
func (b *Local) Load(ctx context.Context, name string, fn func(rd io.Reader) error) error {
	return backend.DefaultLoad(ctx, name, b.openReader, fn)
}

func (b *Local) openReader(ctx context.Context, name string) (io.ReadCloser, error) {
	debug.Log("Load %v", name)

	filename, err := b.Filename(name)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, backoff.Permanent(errors.Errorf("%v is not a regular file", filename))
	}

	return f, nil
}

// Close closes the backend.
func (b *Local) Close() error {
	return nil
}
