package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Timings aggregates per-test durations into a histogram for the
// verbose run summary. Recording is safe from concurrent tests.
type Timings struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewTimings tracks durations from 1µs to 10min with 3 significant
// figures.
func NewTimings() *Timings {
	return &Timings{
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

func (t *Timings) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.hist.RecordValue(int64(d / time.Microsecond))
}

func (t *Timings) Count() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hist.TotalCount()
}

// Percentile returns the duration at the given percentile (0-100).
func (t *Timings) Percentile(p float64) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.hist.ValueAtQuantile(p)) * time.Microsecond
}

func (t *Timings) Mean() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.hist.Mean()) * time.Microsecond
}

func (t *Timings) Max() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.hist.Max()) * time.Microsecond
}

// Summary renders the one-line timing summary shown under -v.
func (t *Timings) Summary() string {
	if t.Count() == 0 {
		return ""
	}
	return fmt.Sprintf("timings: n=%d mean=%s p50=%s p95=%s p99=%s max=%s",
		t.Count(),
		round(t.Mean()),
		round(t.Percentile(50)),
		round(t.Percentile(95)),
		round(t.Percentile(99)),
		round(t.Max()))
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		return d.Round(time.Millisecond)
	case d > time.Millisecond:
		return d.Round(10 * time.Microsecond)
	default:
		return d
	}
}
