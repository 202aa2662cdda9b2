package restore

import "time"

// Tuning of the restore rate estimate. History older than rateWindow is
// dropped, but at least rateMinBuckets buckets and rateMinBytes bytes are
// kept so that bursty progress over a throttled link gives a steady rate.
const (
	rateBucketWidth = time.Second
	rateWindow      = 2 * time.Minute
	rateMinBuckets  = 20
	rateMinBytes    = 100 * 1000 * 1000
)

// rateBucket holds the bytes restored in [end-rateBucketWidth, end).
type rateBucket struct {
	bytes uint64
	end   time.Time
}

// rateEstimator estimates the restore throughput from recent history.
type rateEstimator struct {
	buckets []rateBucket
	start   time.Time
	bytes   uint64
}

func newRateEstimator(start time.Time) *rateEstimator {
	return &rateEstimator{start: start}
}

// trim drops the oldest buckets as of now.
func (r *rateEstimator) trim(now time.Time) {
	cutoff := now.Add(-rateWindow)

	drop := 0
	for drop < len(r.buckets) && len(r.buckets)-drop > rateMinBuckets {
		b := r.buckets[drop]
		if b.end.After(cutoff) || r.bytes-b.bytes < rateMinBytes {
			break
		}
		r.start = b.end
		r.bytes -= b.bytes
		drop++
	}
	r.buckets = r.buckets[drop:]
}

// record adds n bytes restored at now. Successive calls must not go back in
// time.
func (r *rateEstimator) record(now time.Time, n uint64) {
	if n == 0 {
		return
	}

	last := len(r.buckets) - 1
	if last < 0 || !r.buckets[last].end.After(now) {
		r.buckets = append(r.buckets, rateBucket{end: now.Add(rateBucketWidth)})
		last++
	}
	r.buckets[last].bytes += n
	r.bytes += n
	r.trim(now)
}

// rate returns bytes per second as of now, or zero if nothing is known yet.
func (r *rateEstimator) rate(now time.Time) float64 {
	r.trim(now)
	if !r.start.Before(now) {
		return 0
	}
	return float64(r.bytes) / now.Sub(r.start).Seconds()
}
