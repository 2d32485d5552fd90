package metrics

import (
	"sync/atomic"
	"time"
)

// PipelineMetrics tracks how long recordings take to process and how many
// succeed.
type PipelineMetrics struct {
	Latency *Histogram

	Processed atomic.Uint64
	Failed    atomic.Uint64

	startTime time.Time
}

// NewPipelineMetrics creates a new metrics collector.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		Latency:   NewHistogram(1000),
		startTime: time.Now(),
	}
}

// Record stores the outcome of processing one recording.
func (m *PipelineMetrics) Record(d time.Duration, err error) {
	m.Latency.Record(d)
	if err != nil {
		m.Failed.Add(1)
		return
	}
	m.Processed.Add(1)
}

// PipelineStats is a snapshot of PipelineMetrics.
type PipelineStats struct {
	Processed   uint64       `json:"processed"`
	Failed      uint64       `json:"failed"`
	SuccessRate float64      `json:"success_rate"` // percentage
	Latency     LatencyStats `json:"latency"`
	Uptime      string       `json:"uptime"`
}

// Snapshot returns the current statistics.
func (m *PipelineMetrics) Snapshot() PipelineStats {
	processed := m.Processed.Load()
	failed := m.Failed.Load()

	rate := 0.0
	if processed+failed > 0 {
		rate = float64(processed) / float64(processed+failed) * 100
	}

	return PipelineStats{
		Processed:   processed,
		Failed:      failed,
		SuccessRate: rate,
		Latency:     m.Latency.Stats(),
		Uptime:      time.Since(m.startTime).Round(time.Second).String(),
	}
}
