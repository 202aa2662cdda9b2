package limiter

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Limits represents the bandwidth limits for the object store.
type Limits struct {
	// DownloadKb is the download rate in KiB/s, zero means unlimited.
	DownloadKb int
}

// Limiter limits the bandwidth of readers.
type Limiter interface {
	// Downstream returns a rate limited reader that is intended to be used
	// for downloads. Waiting for bandwidth stops when ctx is canceled.
	Downstream(ctx context.Context, r io.Reader) io.Reader
}

type staticLimiter struct {
	downstream *rate.Limiter
}

// NewStaticLimiter constructs a Limiter with a fixed (static) download rate
// cap. It returns nil if no limit is configured.
func NewStaticLimiter(l Limits) Limiter {
	if l.DownloadKb <= 0 {
		return nil
	}

	byteRate := toByteRate(l.DownloadKb)
	return staticLimiter{
		downstream: rate.NewLimiter(rate.Limit(byteRate), byteRate),
	}
}

func (l staticLimiter) Downstream(ctx context.Context, r io.Reader) io.Reader {
	return &rateLimitedReader{ctx: ctx, rd: r, limiter: l.downstream}
}

type rateLimitedReader struct {
	ctx     context.Context
	rd      io.Reader
	limiter *rate.Limiter
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	// WaitN fails for requests larger than the burst size
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.rd.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func toByteRate(val int) int {
	return val * 1024
}
