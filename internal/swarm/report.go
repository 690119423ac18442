package swarm

import (
	"github.com/wesleyorama2/booker/internal/load"
	"github.com/wesleyorama2/booker/internal/metrics"
)

// Percentiles are HDR estimates in milliseconds.
type Percentiles struct {
	P50 float64 `json:"p50_ms"`
	P90 float64 `json:"p90_ms"`
	P99 float64 `json:"p99_ms"`
	// Count includes failed requests and transport errors.
	Count int64 `json:"count"`
}

// Report is the swarm summary: the exact per-operation aggregation plus HDR
// percentiles and task counts.
type Report struct {
	Operations  load.Report            `json:"operations"`
	Percentiles map[string]Percentiles `json:"percentiles"`
	Tasks       map[string]int64       `json:"tasks"`
	Users       int                    `json:"users"`
	Requests    int64                  `json:"requests"`
	Failed      int64                  `json:"failed"`
}

// Report builds the summary. Call it after Run returns.
func (s *Swarm) Report() Report {
	snap := s.engine.Snapshot()
	r := Report{
		Operations:  load.Aggregate(s.samples),
		Percentiles: make(map[string]Percentiles),
		Tasks:       s.TaskCounts(),
		Users:       s.Spawned(),
		Requests:    snap.TotalRequests,
		Failed:      snap.FailedRequests,
	}
	for name, st := range s.engine.RequestStats() {
		r.Percentiles[name] = Percentiles{
			P50:   load.Round2(metrics.Millis(st.P50)),
			P90:   load.Round2(metrics.Millis(st.P90)),
			P99:   load.Round2(metrics.Millis(st.P99)),
			Count: st.Count,
		}
	}
	return r
}
