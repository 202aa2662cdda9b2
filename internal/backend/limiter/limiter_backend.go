package limiter

import (
	"context"
	"io"

	"github.com/vandry/get-longhorn-backup/internal/backend"
)

// LimitBackend wraps a Backend and applies rate limiting to Load() calls on
// the backend.
func LimitBackend(be backend.Backend, l Limiter) backend.Backend {
	return rateLimitedBackend{
		Backend: be,
		limiter: l,
	}
}

type rateLimitedBackend struct {
	backend.Backend
	limiter Limiter
}

func (r rateLimitedBackend) Load(ctx context.Context, name string, consumer func(rd io.Reader) error) error {
	return r.Backend.Load(ctx, name, func(rd io.Reader) error {
		return consumer(r.limiter.Downstream(ctx, rd))
	})
}

func (r rateLimitedBackend) Unwrap() backend.Backend { return r.Backend }

var _ backend.Backend = (*rateLimitedBackend)(nil)
