package retry

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backend/mock"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	"github.com/vandry/get-longhorn-backup/internal/test"
)

func TestBackendLoadRetry(t *testing.T) {
	data := test.Random(23, 1024)
	attempt := 0

	notFound := errors.New("not found")
	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		attempt++
		if attempt > 1 {
			return io.NopCloser(bytes.NewReader(data)), nil
		}

		// return a reader which fails halfway through
		return io.NopCloser(io.MultiReader(bytes.NewReader(data[:512]), &errorReader{errors.New("connection reset")})), nil
	}
	be.IsPermanentErrorFn = func(err error) bool {
		return errors.Is(err, notFound)
	}

	TestFastRetries(t)
	var retries int
	retryBackend := New(be, 10*time.Second, nil, func(_ string, n int) { retries = n })

	buf, err := backend.LoadAll(context.TODO(), nil, retryBackend, "blocks/ab/cd/abcd.blk")
	test.OK(t, err)
	test.Equals(t, data, buf)
	test.Equals(t, 2, attempt)
	test.Equals(t, 1, retries)
}

type errorReader struct{ err error }

func (rd *errorReader) Read(_ []byte) (int, error) { return 0, rd.err }

func TestBackendLoadNotExistNoRetry(t *testing.T) {
	attempt := 0
	notFound := errors.New("not found")

	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		attempt++
		return nil, notFound
	}
	be.IsPermanentErrorFn = func(err error) bool {
		return errors.Is(err, notFound)
	}

	TestFastRetries(t)
	retryBackend := New(be, 10*time.Second, nil, nil)

	err := retryBackend.Load(context.TODO(), "missing", func(rd io.Reader) error { return nil })
	test.Assert(t, errors.Is(err, notFound), "unexpected error %v", err)
	test.Equals(t, 1, attempt)
}

func TestBackendLoadPermanentErrorNoRetry(t *testing.T) {
	attempt := 0

	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		attempt++
		return nil, backoff.Permanent(errors.New("invalid name"))
	}

	TestFastRetries(t)
	retryBackend := New(be, 10*time.Second, nil, nil)

	err := retryBackend.Load(context.TODO(), "../x", func(rd io.Reader) error { return nil })
	test.Assert(t, err != nil, "expected error")
	test.Equals(t, 1, attempt)
}

func TestBackendRetriesExhausted(t *testing.T) {
	attempt := 0
	var reported []string

	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		attempt++
		return nil, errors.New("transient")
	}

	TestFastRetries(t)
	retryBackend := New(be, 100*time.Millisecond, func(msg string, err error, d time.Duration) {
		reported = append(reported, msg)
	}, nil)

	err := retryBackend.Load(context.TODO(), "obj", func(rd io.Reader) error { return nil })
	test.Assert(t, err != nil, "expected error")
	test.Assert(t, attempt > 1, "expected more than one attempt, got %d", attempt)
	test.Assert(t, len(reported) > 0, "expected failures to be reported")
	test.Equals(t, "Load(obj)", reported[0])
}

func TestBackendCanceledContext(t *testing.T) {
	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		t.Fatal("must not be called")
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	TestFastRetries(t)
	err := New(be, 10*time.Second, nil, nil).Load(ctx, "obj", func(rd io.Reader) error { return nil })
	test.Assert(t, errors.Is(err, context.Canceled), "unexpected error %v", err)
}

func TestUnwrap(t *testing.T) {
	be := mock.NewBackend()
	retryBackend := New(be, time.Second, nil, nil)
	test.Assert(t, backend.AsBackend[*mock.Backend](retryBackend) == be, "AsBackend did not find the wrapped backend")
}
