// Package restore reports the progress of a restore run.
package restore

import (
	"sync"
	"time"

	"github.com/vandry/get-longhorn-backup/internal/ui/progress"
)

// State is a snapshot of the progress of a restore.
type State struct {
	BlocksTotal    uint64
	BlocksRestored uint64
	BlocksCached   uint64
	BytesRestored  uint64
	Gaps           uint64
	Verifying      bool
	BytesVerified  uint64

	// ETA is the estimated time until all blocks are restored, zero if
	// unknown.
	ETA time.Duration
}

// ProgressPrinter renders progress updates.
type ProgressPrinter interface {
	Update(progress State, duration time.Duration)
	Finish(progress State, duration time.Duration)
}

type term interface {
	Print(line string)
	SetStatus(lines []string)
}

// Progress tracks a restore and periodically passes its state to a
// ProgressPrinter. All methods may be called on a nil *Progress.
type Progress struct {
	updater progress.Updater
	m       sync.Mutex

	s    State
	rate *rateEstimator
	now  func() time.Time

	printer ProgressPrinter
}

// NewProgress starts reporting to printer every interval.
func NewProgress(printer ProgressPrinter, interval time.Duration) *Progress {
	p := &Progress{
		printer: printer,
		now:     time.Now,
	}
	p.updater = *progress.NewUpdater(interval, p.update)
	return p
}

func (p *Progress) update(runtime time.Duration, final bool) {
	p.m.Lock()
	defer p.m.Unlock()

	if !final {
		s := p.s
		s.ETA = p.eta()
		p.printer.Update(s, runtime)
	} else {
		p.printer.Finish(p.s, runtime)
	}
}

// eta extrapolates the average size of the blocks restored so far to the
// remaining blocks.
func (p *Progress) eta() time.Duration {
	if p.rate == nil || p.s.Verifying || p.s.BlocksRestored == 0 || p.s.BlocksRestored >= p.s.BlocksTotal {
		return 0
	}

	rate := p.rate.rate(p.now())
	if rate <= 0 {
		return 0
	}

	remaining := float64(p.s.BytesRestored) / float64(p.s.BlocksRestored) * float64(p.s.BlocksTotal-p.s.BlocksRestored)
	return time.Duration(remaining / rate * float64(time.Second))
}

// Start sets the number of blocks in the manifest.
func (p *Progress) Start(blocks int) {
	if p == nil {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	p.s.BlocksTotal = uint64(blocks)
	p.rate = newRateEstimator(p.now())
}

// AddBlock records a restored block of size decompressed bytes.
func (p *Progress) AddBlock(size uint64, cached bool) {
	if p == nil {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	p.s.BlocksRestored++
	p.s.BytesRestored += size
	if p.rate != nil {
		p.rate.record(p.now(), size)
	}
	if cached {
		p.s.BlocksCached++
	}
}

// AddGap records a discontinuity between two blocks.
func (p *Progress) AddGap() {
	if p == nil {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	p.s.Gaps++
}

// StartVerify marks the beginning of the verification phase.
func (p *Progress) StartVerify() {
	if p == nil {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	p.s.Verifying = true
}

// AddVerified records bytes read back from the destination file.
func (p *Progress) AddVerified(size uint64) {
	if p == nil {
		return
	}

	p.m.Lock()
	defer p.m.Unlock()

	p.s.BytesVerified += size
}

// Finish stops the periodic updates and prints the final state.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.updater.Done()
}
