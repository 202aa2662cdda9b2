package test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	"github.com/vandry/get-longhorn-backup/internal/test"
)

// blockName returns an object name laid out like a stored block.
func blockName(data []byte) string {
	sum := fmt.Sprintf("%016x", xxhash.Sum64(data))
	return "backupstore/volumes/pvc/blocks/" + sum[0:2] + "/" + sum[2:4] + "/" + sum + ".blk"
}

// TestLocation tests that a location string is returned.
func (s *Suite[C]) TestLocation(t *testing.T) {
	b := s.open(t)
	defer s.close(t, b)

	l := b.Location()
	if l == "" {
		t.Fatalf("invalid location string %q", l)
	}
}

// TestLoadNotExist tests that a missing object is reported as such and is
// not retried.
func (s *Suite[C]) TestLoadNotExist(t *testing.T) {
	b := s.open(t)
	defer s.close(t, b)

	called := false
	err := b.Load(context.TODO(), "backupstore/volumes/pvc/blocks/00/00/0000.blk", func(rd io.Reader) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatalf("Load() did not return an error for a non-existing object")
	}
	test.Assert(t, !called, "Load() called fn for a non-existing object")
	test.Assert(t, b.IsNotExist(err), "IsNotExist() did not recognize non-existing object: %v", err)
	test.Assert(t, b.IsPermanentError(err), "IsPermanentError() did not recognize non-existing object: %v", err)

	test.Assert(t, !b.IsNotExist(errors.New("other")), "IsNotExist() accepted an unrelated error")
}

// TestLoad tests the backend's Load function.
func (s *Suite[C]) TestLoad(t *testing.T) {
	b := s.open(t)
	defer s.close(t, b)

	lengths := []int{0, 1, 4096, rand.Intn(1<<20) + 2000}
	if !s.MinimalData {
		lengths = append(lengths, 2<<20+17)
	}

	for i, length := range lengths {
		data := test.Random(23+i, length)
		name := blockName(data)
		s.save(t, name, data)

		var buf []byte
		err := b.Load(context.TODO(), name, func(rd io.Reader) (ierr error) {
			buf, ierr = io.ReadAll(rd)
			return ierr
		})
		if err != nil {
			t.Fatalf("Load(%v) returned unexpected error: %+v", name, err)
		}
		if !bytes.Equal(buf, data) {
			t.Fatalf("Load(%v) returned wrong bytes, want %d bytes, got %d", name, len(data), len(buf))
		}
	}
}

// TestLoadConsumerError tests that an error returned by fn is passed through.
func (s *Suite[C]) TestLoadConsumerError(t *testing.T) {
	b := s.open(t)
	defer s.close(t, b)

	data := test.Random(42, 1000)
	name := blockName(data)
	s.save(t, name, data)

	deliberate := errors.New("deliberate error")
	err := b.Load(context.TODO(), name, func(rd io.Reader) error {
		_, err := io.Copy(io.Discard, rd)
		if err != nil {
			t.Fatal(err)
		}
		return deliberate
	})
	test.Assert(t, errors.Is(err, deliberate), "Load() did not propagate consumer error: %v", err)
}

// TestLoadAllReusesBuffer tests that LoadAll fills a large enough buffer
// instead of allocating a new one.
func (s *Suite[C]) TestLoadAllReusesBuffer(t *testing.T) {
	b := s.open(t)
	defer s.close(t, b)

	data := test.Random(43, 5000)
	name := blockName(data)
	s.save(t, name, data)

	buf := make([]byte, 0, 8192)
	res, err := backend.LoadAll(context.TODO(), buf, b, name)
	test.OK(t, err)
	test.Equals(t, data, res)
	test.Assert(t, &res[0] == &buf[:1][0], "LoadAll() did not reuse the buffer")
}

// TestLoadCanceled tests that Load returns an error for a canceled context.
func (s *Suite[C]) TestLoadCanceled(t *testing.T) {
	b := s.open(t)
	defer s.close(t, b)

	data := test.Random(44, 100)
	name := blockName(data)
	s.save(t, name, data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.LoadAll(ctx, nil, b, name)
	test.Assert(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
}
