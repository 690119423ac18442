// Package metrics keeps live latency histograms for the swarm simulator and
// the benchmark suite.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Phase is the lifecycle stage of a run.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseSpawning Phase = "spawning"
	PhaseSteady   Phase = "steady"
	PhaseDone     Phase = "done"
)

// Engine aggregates latencies in HDR histograms, one overall and one per
// operation name.
//
// Engine is safe for concurrent use. Counters are atomic; HDR histograms are
// not thread-safe and are guarded by mu.
type Engine struct {
	mu      sync.Mutex
	overall *hdrhistogram.Histogram
	named   map[string]*hdrhistogram.Histogram

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	active  atomic.Int32

	phaseMu      sync.RWMutex
	phase        Phase
	phaseHistory []PhaseChange

	startTime time.Time
	config    Config
}

// Config bounds the histograms.
type Config struct {
	// HistogramMin is the smallest recordable value in microseconds.
	HistogramMin int64
	// HistogramMax is the largest recordable value in microseconds.
	HistogramMax int64
	// SigFigs is the number of significant value digits.
	SigFigs int
}

// DefaultConfig records 1µs to 1h with 3 significant figures.
func DefaultConfig() Config {
	return Config{
		HistogramMin: 1,
		HistogramMax: 3600000000,
		SigFigs:      3,
	}
}

// PhaseChange records a phase transition.
type PhaseChange struct {
	Phase     Phase     `json:"phase"`
	Timestamp time.Time `json:"timestamp"`
	Requests  int64     `json:"requests"`
}

// NewEngine creates an engine with DefaultConfig.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultConfig())
}

// NewEngineWithConfig creates an engine with custom histogram bounds.
func NewEngineWithConfig(config Config) *Engine {
	return &Engine{
		overall:   hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.SigFigs),
		named:     make(map[string]*hdrhistogram.Histogram),
		phase:     PhaseInit,
		startTime: time.Now(),
		config:    config,
	}
}

// RecordLatency records one request under name.
func (e *Engine) RecordLatency(d time.Duration, name string, success bool) {
	micros := d.Microseconds()
	if micros < e.config.HistogramMin {
		micros = e.config.HistogramMin
	}
	if micros > e.config.HistogramMax {
		micros = e.config.HistogramMax
	}

	e.mu.Lock()
	e.overall.RecordValue(micros)
	if name != "" {
		hist, ok := e.named[name]
		if !ok {
			hist = e.newHistogram()
			e.named[name] = hist
		}
		hist.RecordValue(micros)
	}
	e.mu.Unlock()

	e.total.Add(1)
	if success {
		e.success.Add(1)
	} else {
		e.failed.Add(1)
	}
}

func (e *Engine) newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(e.config.HistogramMin, e.config.HistogramMax, e.config.SigFigs)
}

// SetPhase records a phase transition. Repeating the current phase is a no-op.
func (e *Engine) SetPhase(phase Phase) {
	e.phaseMu.Lock()
	defer e.phaseMu.Unlock()

	if e.phase == phase {
		return
	}
	e.phase = phase
	e.phaseHistory = append(e.phaseHistory, PhaseChange{
		Phase:     phase,
		Timestamp: time.Now(),
		Requests:  e.total.Load(),
	})
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()
	return e.phase
}

// PhaseHistory returns a copy of all transitions.
func (e *Engine) PhaseHistory() []PhaseChange {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()
	out := make([]PhaseChange, len(e.phaseHistory))
	copy(out, e.phaseHistory)
	return out
}

// SetActiveUsers updates the live user gauge.
func (e *Engine) SetActiveUsers(n int) {
	e.active.Store(int32(n))
}

// ActiveUsers returns the live user gauge.
func (e *Engine) ActiveUsers() int {
	return int(e.active.Load())
}

// Stats returns the statistics of one named histogram.
func (e *Engine) Stats(name string) (LatencyStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	hist, ok := e.named[name]
	if !ok {
		return LatencyStats{}, false
	}
	return statsOf(hist), true
}

// RequestStats returns statistics for every named histogram.
func (e *Engine) RequestStats() map[string]LatencyStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]LatencyStats, len(e.named))
	for name, hist := range e.named {
		out[name] = statsOf(hist)
	}
	return out
}

// Names returns the recorded operation names, sorted.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.named))
	for name := range e.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a point-in-time view of the engine.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	latency := statsOf(e.overall)
	e.mu.Unlock()

	elapsed := time.Since(e.startTime)
	total := e.total.Load()
	failed := e.failed.Load()

	var rps, errorRate float64
	if elapsed > 0 {
		rps = float64(total) / elapsed.Seconds()
	}
	if total > 0 {
		errorRate = float64(failed) / float64(total)
	}

	return &Snapshot{
		TotalRequests:   total,
		SuccessRequests: e.success.Load(),
		FailedRequests:  failed,
		Latency:         latency,
		RPS:             rps,
		ErrorRate:       errorRate,
		ActiveUsers:     e.ActiveUsers(),
		Phase:           e.Phase(),
		Elapsed:         elapsed,
	}
}

// Reset clears all histograms and counters.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.overall.Reset()
	e.named = make(map[string]*hdrhistogram.Histogram)
	e.mu.Unlock()

	e.total.Store(0)
	e.success.Store(0)
	e.failed.Store(0)
	e.active.Store(0)

	e.phaseMu.Lock()
	e.phase = PhaseInit
	e.phaseHistory = nil
	e.phaseMu.Unlock()

	e.startTime = time.Now()
}

func statsOf(h *hdrhistogram.Histogram) LatencyStats {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return LatencyStats{
		Min:    us(h.Min()),
		Max:    us(h.Max()),
		Mean:   time.Duration(h.Mean() * float64(time.Microsecond)),
		StdDev: time.Duration(h.StdDev() * float64(time.Microsecond)),
		P50:    us(h.ValueAtQuantile(50)),
		P90:    us(h.ValueAtQuantile(90)),
		P95:    us(h.ValueAtQuantile(95)),
		P99:    us(h.ValueAtQuantile(99)),
		Count:  h.TotalCount(),
	}
}

// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	TotalRequests   int64         `json:"totalRequests"`
	SuccessRequests int64         `json:"successRequests"`
	FailedRequests  int64         `json:"failedRequests"`
	Latency         LatencyStats  `json:"latency"`
	RPS             float64       `json:"rps"`
	ErrorRate       float64       `json:"errorRate"`
	ActiveUsers     int           `json:"activeUsers"`
	Phase           Phase         `json:"phase"`
	Elapsed         time.Duration `json:"elapsed"`
}

// LatencyStats summarizes one histogram.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
