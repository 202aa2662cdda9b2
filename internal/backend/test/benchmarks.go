package test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/test"
)

// BenchmarkLoadBlock benchmarks the Load() method of a backend by loading a
// complete object the size of a block.
func (s *Suite[C]) BenchmarkLoadBlock(t *testing.B) {
	be := s.open(t)
	defer s.close(t, be)

	length := 2<<20 + 2123
	data := test.Random(23, length)
	name := blockName(data)
	s.save(t, name, data)

	buf := make([]byte, length)

	t.SetBytes(int64(length))
	t.ResetTimer()

	for i := 0; i < t.N; i++ {
		var n int
		err := be.Load(context.TODO(), name, func(rd io.Reader) (ierr error) {
			n, ierr = io.ReadFull(rd, buf)
			return ierr
		})

		t.StopTimer()
		switch {
		case err != nil:
			t.Fatal(err)
		case n != length:
			t.Fatalf("wrong number of bytes read: want %v, got %v", length, n)
		case !bytes.Equal(data, buf):
			t.Fatalf("wrong bytes returned")
		}
		t.StartTimer()
	}
}

// BenchmarkLoadAll benchmarks LoadAll with a reused buffer, the way blocks
// are fetched during a restore.
func (s *Suite[C]) BenchmarkLoadAll(t *testing.B) {
	be := s.open(t)
	defer s.close(t, be)

	length := 2<<20 + 2123
	data := test.Random(24, length)
	name := blockName(data)
	s.save(t, name, data)

	var buf []byte
	t.SetBytes(int64(length))
	t.ResetTimer()

	for i := 0; i < t.N; i++ {
		var err error
		buf, err = backend.LoadAll(context.TODO(), buf, be, name)
		if err != nil {
			t.Fatal(err)
		}
	}
}
