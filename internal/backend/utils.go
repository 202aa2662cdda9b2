package backend

import (
	"bytes"
	"context"
	"io"

	"github.com/vandry/get-longhorn-backup/internal/debug"
)

// LoadAll reads all data stored in the backend for name into the given
// buffer, which is truncated. If the buffer is not large enough or nil, a new
// one is allocated.
func LoadAll(ctx context.Context, buf []byte, be Backend, name string) ([]byte, error) {
	err := be.Load(ctx, name, func(rd io.Reader) error {
		// make sure this is idempotent, in case an error occurs this function may be called multiple times!
		wr := bytes.NewBuffer(buf[:0])
		_, cerr := io.Copy(wr, rd)
		if cerr != nil {
			return cerr
		}
		buf = wr.Bytes()
		return nil
	})

	if err != nil {
		debug.Log("LoadAll(%v) failed: %v", name, err)
		return nil, err
	}

	return buf, nil
}

// DefaultLoad implements Backend.Load using lower-level openReader func
func DefaultLoad(ctx context.Context, name string,
	openReader func(ctx context.Context, name string) (io.ReadCloser, error),
	fn func(rd io.Reader) error) error {

	rd, err := openReader(ctx, name)
	if err != nil {
		return err
	}
	err = fn(rd)
	if err != nil {
		_ = rd.Close() // ignore secondary errors closing the reader
		return err
	}
	return rd.Close()
}
