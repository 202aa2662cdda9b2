package mem

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

type memObject struct {
	data []byte
	hash uint64
}

// make sure that MemoryBackend implements backend.Backend
var _ backend.Backend = &MemoryBackend{}

var errNotFound = errors.New("not found")

// MemoryBackend is a mock backend that uses a map for storing all data in
// memory. This should only be used for tests.
type MemoryBackend struct {
	data  map[string]memObject
	loads []string
	m     sync.Mutex
}

// New returns a new backend that saves all data in a map in memory.
func New() *MemoryBackend {
	be := &MemoryBackend{
		data: make(map[string]memObject),
	}

	debug.Log("created new memory backend")

	return be
}

// Location returns a fixed description of the in-memory store.
func (be *MemoryBackend) Location() string {
	return "mem"
}

// IsNotExist returns true if the file does not exist.
func (be *MemoryBackend) IsNotExist(err error) bool {
	return errors.Is(err, errNotFound)
}

func (be *MemoryBackend) IsPermanentError(err error) bool {
	return be.IsNotExist(err)
}

// Save stores data under name, replacing an existing object. The slice is
// kept without copying, the caller must not modify it afterwards.
func (be *MemoryBackend) Save(ctx context.Context, name string, data []byte) error {
	be.m.Lock()
	defer be.m.Unlock()

	be.data[name] = memObject{data: data, hash: xxhash.Sum64(data)}

	return ctx.Err()
}

// Load runs fn with a reader that yields the contents of the object name.
func (be *MemoryBackend) Load(ctx context.Context, name string, fn func(rd io.Reader) error) error {
	return backend.DefaultLoad(ctx, name, be.openReader, fn)
}

func (be *MemoryBackend) openReader(ctx context.Context, name string) (io.ReadCloser, error) {
	be.m.Lock()
	defer be.m.Unlock()

	be.loads = append(be.loads, name)

	obj, ok := be.data[name]
	if !ok {
		return nil, errNotFound
	}

	// the stored slice still belongs to the caller of Save
	if xxhash.Sum64(obj.data) != obj.hash {
		return nil, errors.Errorf("object %v was modified after Save", name)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), ctx.Err()
}

// Loads returns the names passed to Load so far, in call order.
func (be *MemoryBackend) Loads() []string {
	be.m.Lock()
	defer be.m.Unlock()

	return append([]string(nil), be.loads...)
}

// Close closes the backend.
func (be *MemoryBackend) Close() error {
	return nil
}
