package backend

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// ErrStalled is returned when a download made no progress within the
// configured stall timeout. It is not permanent, retrying may succeed.
var ErrStalled = errors.New("download stalled")

// readChunkSize bounds a single read from a response body so that every
// read can make progress before the timer expires.
const readChunkSize = 128 * 1024

// stallRoundTripper cancels a request if no response header arrives, or if
// reading the response body does not make progress, within timeout. Block
// downloads read the body continuously, so a quiet connection means the
// request is stuck.
type stallRoundTripper struct {
	rt      http.RoundTripper
	timeout time.Duration
}

var _ http.RoundTripper = &stallRoundTripper{}

func newStallRoundTripper(rt http.RoundTripper, timeout time.Duration) *stallRoundTripper {
	return &stallRoundTripper{rt: rt, timeout: timeout}
}

func (s *stallRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	stalled := &atomic.Bool{}
	timer := time.AfterFunc(s.timeout, func() {
		stalled.Store(true)
		cancel()
	})

	mapErr := func(err error) error {
		if err != nil && stalled.Load() && errors.Is(err, context.Canceled) {
			return ErrStalled
		}
		return err
	}

	resp, err := s.rt.RoundTrip(req.Clone(ctx))
	if err != nil {
		timer.Stop()
		cancel()
		return nil, mapErr(err)
	}

	resp.Body = &stallBody{
		rc:   resp.Body,
		kick: func() { timer.Reset(s.timeout) },
		done: func() {
			timer.Stop()
			cancel()
		},
		mapErr: mapErr,
	}
	return resp, nil
}

type stallBody struct {
	rc     io.ReadCloser
	kick   func()
	done   func()
	mapErr func(error) error
}

func (b *stallBody) Read(p []byte) (int, error) {
	if len(p) > readChunkSize {
		p = p[:readChunkSize]
	}

	b.kick()
	n, err := b.rc.Read(p)
	b.kick()

	return n, b.mapErr(err)
}

func (b *stallBody) Close() error {
	b.done()
	return b.rc.Close()
}
