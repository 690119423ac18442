// Package load drives concurrent workflow iterations against the booking API
// and reduces the recorded latencies into per-operation summaries.
package load

import (
	"sort"
	"sync"
	"time"
)

// Operation names a timed step.
type Operation string

const (
	OpPing   Operation = "ping"
	OpAuth   Operation = "auth"
	OpCreate Operation = "create"
	OpGet    Operation = "get"
	OpDelete Operation = "delete"
)

// Operations lists the workflow steps in report order.
var Operations = []Operation{OpPing, OpAuth, OpCreate, OpGet, OpDelete}

// Observer receives every recorded sample in addition to the collection.
// Implementations must be safe for concurrent use.
type Observer interface {
	Observe(operation string, elapsed time.Duration)
}

// series is one append-only latency collection in milliseconds.
type series struct {
	mu     sync.Mutex
	values []float64
}

func (s *series) append(ms float64) {
	s.mu.Lock()
	s.values = append(s.values, ms)
	s.mu.Unlock()
}

func (s *series) snapshot() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Samples holds one mutex-guarded collection per operation. Samples are
// never removed or mutated once appended.
type Samples struct {
	mu        sync.RWMutex
	series    map[Operation]*series
	observers []Observer
}

// NewSamples creates empty collections for every workflow operation.
func NewSamples(observers ...Observer) *Samples {
	s := &Samples{
		series:    make(map[Operation]*series, len(Operations)),
		observers: observers,
	}
	for _, op := range Operations {
		s.series[op] = &series{}
	}
	return s
}

// Record appends elapsed (as milliseconds) to op's collection and notifies
// observers.
func (s *Samples) Record(op Operation, elapsed time.Duration) {
	s.get(op).append(float64(elapsed) / float64(time.Millisecond))
	for _, o := range s.observers {
		o.Observe(string(op), elapsed)
	}
}

// Append adds a raw millisecond value. Observers are not notified.
func (s *Samples) Append(op Operation, ms float64) {
	s.get(op).append(ms)
}

// Snapshot returns a copy of op's collection.
func (s *Samples) Snapshot(op Operation) []float64 {
	s.mu.RLock()
	sr, ok := s.series[op]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return sr.snapshot()
}

// Count returns the number of samples recorded for op.
func (s *Samples) Count(op Operation) int {
	s.mu.RLock()
	sr, ok := s.series[op]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.values)
}

// Operations returns the known operations followed by any extra ones in
// name order.
func (s *Samples) Operations() []Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops := make([]Operation, 0, len(s.series))
	ops = append(ops, Operations...)

	var extra []Operation
	for op := range s.series {
		if !isWorkflowOp(op) {
			extra = append(extra, op)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(ops, extra...)
}

func (s *Samples) get(op Operation) *series {
	s.mu.RLock()
	sr, ok := s.series[op]
	s.mu.RUnlock()
	if ok {
		return sr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sr, ok = s.series[op]; !ok {
		sr = &series{}
		s.series[op] = sr
	}
	return sr
}

func isWorkflowOp(op Operation) bool {
	for _, known := range Operations {
		if op == known {
			return true
		}
	}
	return false
}
