package backend

import (
	"context"
	"io"
)

// Backend is the read side of an object store holding backups. Objects are
// addressed by their full path inside the bucket (or directory).
//
// Backend operations that return an error will be retried when a Backend is
// wrapped in a retry.Backend. To prevent that from happening, the operations
// should return a github.com/cenkalti/backoff/v4.PermanentError. Errors from
// the context package need not be wrapped, as context cancellation is checked
// separately by the retrying logic.
type Backend interface {
	// Location returns a string that describes the store, e.g. the bucket.
	Location() string

	// Load runs fn with a reader that yields the whole contents of the object
	// name.
	//
	// The function fn may be called multiple times during the same Load
	// invocation and therefore must be idempotent.
	//
	// Implementations are encouraged to use DefaultLoad.
	Load(ctx context.Context, name string, fn func(rd io.Reader) error) error

	// IsNotExist returns true if the error was caused by a non-existing
	// object. The argument may be a wrapped error.
	IsNotExist(err error) bool

	// IsPermanentError returns true if the error can very likely not be resolved
	// by retrying the operation. Backends should return true if the object is
	// missing or the user is not authorized to read it.
	IsPermanentError(err error) bool

	// Close the backend
	Close() error
}

type Unwrapper interface {
	// Unwrap returns the underlying backend or nil if there is none.
	Unwrap() Backend
}

// AsBackend returns the first backend of type B in the chain of wrapped
// backends starting at b, or the zero value if there is none.
func AsBackend[B Backend](b Backend) B {
	for b != nil {
		if be, ok := b.(B); ok {
			return be
		}

		if be, ok := b.(Unwrapper); ok {
			b = be.Unwrap()
		} else {
			// not the backend we're looking for
			break
		}
	}
	var be B
	return be
}
