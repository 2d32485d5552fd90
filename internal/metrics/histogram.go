// Package metrics collects processing latency and outcome counters.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Histogram keeps a bounded window of duration samples in milliseconds.
type Histogram struct {
	samples []float64
	mu      sync.RWMutex
	maxSize int
}

// NewHistogram creates a histogram keeping at most maxSize samples
// (1000 when maxSize <= 0). The oldest fifth is dropped when it overflows.
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a duration sample.
func (h *Histogram) Record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, float64(d.Microseconds())/1000.0)
	if len(h.samples) > h.maxSize {
		drop := h.maxSize / 5
		if drop == 0 {
			drop = 1
		}
		h.samples = h.samples[drop:]
	}
}

// Percentile returns the linearly interpolated value at p (0-100).
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	sorted := make([]float64, len(h.samples))
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	fraction := index - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}

// Stats summarises the current samples.
func (h *Histogram) Stats() LatencyStats {
	p50, p95 := h.Percentile(50), h.Percentile(95)

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Mean:  lo.Sum(h.samples) / float64(len(h.samples)),
		P50:   p50,
		P95:   p95,
		Min:   lo.Min(h.samples),
		Max:   lo.Max(h.samples),
		Count: len(h.samples),
	}
}

// Reset clears all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
}

// LatencyStats contains statistics for a latency histogram.
type LatencyStats struct {
	Mean  float64 `json:"mean"` // milliseconds
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}
