package load

import (
	"encoding/json"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestSummarize_BelowThreshold(t *testing.T) {
	s := Summarize(seq(1, 99))
	assert.Equal(t, 99, s.Count)
	assert.Equal(t, 50.0, s.MeanMs)
	assert.Nil(t, s.P95Ms)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":99,"mean_ms":50,"p95_ms":null}`, string(data))
}

func TestSummarize_AtThreshold(t *testing.T) {
	s := Summarize(seq(1, 100))
	assert.Equal(t, 100, s.Count)
	assert.Equal(t, 50.5, s.MeanMs)
	require.NotNil(t, s.P95Ms)
	assert.Equal(t, 95.95, *s.P95Ms)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
}

func TestSummarize_DoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Summarize(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestSummarize_Rounding(t *testing.T) {
	s := Summarize([]float64{12.3456})
	assert.Equal(t, 12.35, s.MeanMs)

	s = Summarize([]float64{10.001, 10.002})
	assert.Equal(t, 10.0, s.MeanMs)
}

func TestQuantile_WithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 100 + rng.Intn(900)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.ExpFloat64() * 250
		}

		s := Summarize(values)
		require.NotNil(t, s.P95Ms)

		sort.Float64s(values)
		assert.GreaterOrEqual(t, *s.P95Ms, Round2(values[0]))
		assert.LessOrEqual(t, *s.P95Ms, Round2(values[n-1]))
	}
}

func TestQuantile_SmallInputs(t *testing.T) {
	assert.Equal(t, 0.0, Quantile(nil, 95, 100))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 95, 100))
	// Clamped to the last neighbour pair and kept within the data.
	assert.Equal(t, 2.0, Quantile([]float64{1, 2}, 95, 100))
}

func TestQuantile_Constant(t *testing.T) {
	values := make([]float64, 250)
	for i := range values {
		values[i] = 42
	}
	assert.Equal(t, 42.0, Quantile(values, 95, 100))
}

func TestAggregate_EmptyReport(t *testing.T) {
	report := Aggregate(NewSamples())
	assert.Equal(t, 0, report.Total())

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Equal(t, `{"ping":{},"auth":{},"create":{},"get":{},"delete":{}}`, string(data))
}

func TestAggregate_KeyOrder(t *testing.T) {
	samples := NewSamples()
	samples.Append(OpDelete, 5)
	samples.Append(OpPing, 1)
	samples.Append(Operation("list"), 9)

	report := Aggregate(samples)
	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ping":{"count":1,"mean_ms":1,"p95_ms":null},"auth":{},"create":{},"get":{},"delete":{"count":1,"mean_ms":5,"p95_ms":null},"list":{"count":1,"mean_ms":9,"p95_ms":null}}`,
		string(data))

	s, ok := report.Get(OpDelete)
	require.True(t, ok)
	assert.Equal(t, 1, s.Count)
	_, ok = report.Get(Operation("missing"))
	assert.False(t, ok)
	assert.Equal(t, 3, report.Total())
}
