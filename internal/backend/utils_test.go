package backend_test

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backend/mem"
	"github.com/vandry/get-longhorn-backup/internal/backend/mock"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	rtest "github.com/vandry/get-longhorn-backup/internal/test"
)

const KiB = 1 << 10
const MiB = 1 << 20

func TestLoadAll(t *testing.T) {
	b := mem.New()
	var buf []byte

	for i := 0; i < 20; i++ {
		data := rtest.Random(23+i, rand.Intn(MiB)+500*KiB)

		name := "backups/host1/blocks/" + string(rune('a'+i))
		rtest.OK(t, b.Save(context.TODO(), name, data))

		buf, err := backend.LoadAll(context.TODO(), buf, b, name)
		rtest.OK(t, err)

		if len(buf) != len(data) {
			t.Errorf("length of returned buffer does not match, want %d, got %d", len(data), len(buf))
			continue
		}

		if !bytes.Equal(buf, data) {
			t.Errorf("wrong data returned")
			continue
		}
	}
}

func TestLoadAllReusesBuffer(t *testing.T) {
	b := mem.New()
	data := rtest.Random(42, 1000)
	rtest.OK(t, b.Save(context.TODO(), "obj", data))

	buf := make([]byte, 0, 2000)
	res, err := backend.LoadAll(context.TODO(), buf, b, "obj")
	rtest.OK(t, err)
	rtest.Equals(t, data, res)
	rtest.Assert(t, &buf[:1][0] == &res[0], "buffer with sufficient capacity was not reused")
}

func TestLoadAllNotExist(t *testing.T) {
	b := mem.New()
	_, err := backend.LoadAll(context.TODO(), nil, b, "missing")
	rtest.Assert(t, err != nil, "expected error for missing object")
	rtest.Assert(t, b.IsNotExist(err), "expected not-exist error, got %v", err)
}

func TestLoadAllIdempotent(t *testing.T) {
	data := []byte("second attempt succeeds")
	calls := 0

	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	// emulate a wrapper which invokes fn twice, the first result is discarded
	wrapped := &twiceBackend{Backend: be, calls: &calls}

	res, err := backend.LoadAll(context.TODO(), nil, wrapped, "obj")
	rtest.OK(t, err)
	rtest.Equals(t, 2, calls)
	rtest.Equals(t, data, res)
}

type twiceBackend struct {
	backend.Backend
	calls *int
}

func (be *twiceBackend) Load(ctx context.Context, name string, fn func(rd io.Reader) error) error {
	for i := 0; i < 2; i++ {
		*be.calls++
		err := be.Backend.Load(ctx, name, fn)
		if err != nil {
			return errors.Wrap(err, "Load")
		}
	}
	return nil
}
