package load

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
)

// MinSamplesForP95 is the smallest collection that gets a p95.
const MinSamplesForP95 = 100

// Summary is the reduction of one operation's collection. The zero value
// (Count 0) renders as an empty JSON object.
type Summary struct {
	Count  int      `json:"count"`
	MeanMs float64  `json:"mean_ms"`
	P95Ms  *float64 `json:"p95_ms"`

	// Min and Max are kept for the text view and are not serialized.
	Min float64 `json:"-"`
	Max float64 `json:"-"`
}

// MarshalJSON renders {} for an empty collection and p95_ms as null below
// MinSamplesForP95.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Count == 0 {
		return []byte("{}"), nil
	}
	type plain Summary
	return json.Marshal(plain(s))
}

// Summarize reduces millisecond samples to count, mean and p95, each value
// rounded to two decimals. The input is not modified.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	s := Summary{
		Count:  len(sorted),
		MeanMs: Round2(sum / float64(len(sorted))),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) >= MinSamplesForP95 {
		p95 := Round2(Quantile(sorted, 95, 100))
		s.P95Ms = &p95
	}
	return s
}

// Quantile returns the i-th of the n-1 cut points dividing sorted into n
// equal-probability intervals, using the exclusive method (positions over
// len+1, linear interpolation between neighbours). sorted must be ascending.
// The result always lies within [sorted[0], sorted[len-1]].
func Quantile(sorted []float64, i, n int) float64 {
	ld := len(sorted)
	switch ld {
	case 0:
		return 0
	case 1:
		return sorted[0]
	}

	m := ld + 1
	j := i * m / n
	if j < 1 {
		j = 1
	} else if j > ld-1 {
		j = ld - 1
	}
	delta := i*m - j*n
	v := (sorted[j-1]*float64(n-delta) + sorted[j]*float64(delta)) / float64(n)

	// Clamping j can push delta outside [0, n]; keep the cut inside the data.
	return math.Min(math.Max(v, sorted[0]), sorted[ld-1])
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// OperationSummary pairs an operation with its summary.
type OperationSummary struct {
	Operation Operation
	Summary   Summary
}

// Report is an ordered set of summaries. It serializes as a JSON object whose
// keys keep the slice order.
type Report []OperationSummary

// Aggregate summarizes every collection in s.
func Aggregate(s *Samples) Report {
	ops := s.Operations()
	report := make(Report, 0, len(ops))
	for _, op := range ops {
		report = append(report, OperationSummary{Operation: op, Summary: Summarize(s.Snapshot(op))})
	}
	return report
}

// Get returns the summary for op.
func (r Report) Get(op Operation) (Summary, bool) {
	for _, entry := range r {
		if entry.Operation == op {
			return entry.Summary, true
		}
	}
	return Summary{}, false
}

// Total returns the number of samples across all operations.
func (r Report) Total() int {
	var n int
	for _, entry := range r {
		n += entry.Summary.Count
	}
	return n
}

// MarshalJSON writes {"ping": {...}, "auth": {...}, ...} in slice order.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(entry.Operation))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Summary)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
