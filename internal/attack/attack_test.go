package attack

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/booker/internal/booker/bookertest"
)

type recorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *recorder) Observe(operation string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[operation]++
}

func TestAttacker_Run(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	rec := &recorder{}
	a, err := New(Config{BaseURL: srv.URL + "/", Rate: 40, Duration: 250 * time.Millisecond, Timeout: time.Second},
		WithObserver(rec))
	require.NoError(t, err)

	results, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	ping, list := results[0], results[1]
	assert.Equal(t, "ping", ping.Name)
	assert.Equal(t, srv.URL+"/ping", ping.URL)
	assert.Equal(t, "bookings_list", list.Name)

	for _, r := range results {
		assert.Positive(t, r.Requests, r.Name)
		assert.LessOrEqual(t, r.Requests, uint64(12), r.Name)
		assert.Equal(t, 1.0, r.Success, r.Name)
		assert.Empty(t, r.Errors, r.Name)
		assert.LessOrEqual(t, r.Mean, r.Max, r.Name)
		assert.LessOrEqual(t, r.P95, r.P99, r.Name)
		assert.EqualValues(t, r.Requests, rec.counts[r.Name], r.Name)
	}
	assert.EqualValues(t, ping.Requests, ping.StatusCodes["201"])
	assert.EqualValues(t, list.Requests, list.StatusCodes["200"])
	assert.EqualValues(t, ping.Requests, srv.Count("GET /ping"))
}

func TestAttacker_Unreachable(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	a, err := New(Config{
		BaseURL:  url,
		Rate:     20,
		Duration: 100 * time.Millisecond,
		Timeout:  time.Second,
		Targets:  []Target{{Name: "ping", Method: "GET", Path: "/ping"}},
	}, WithObserver(rec))
	require.NoError(t, err)

	results, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Positive(t, results[0].Requests)
	assert.Zero(t, results[0].Success)
	assert.NotEmpty(t, results[0].Errors)
	assert.Empty(t, rec.counts, "no response, no observation")
}

func TestAttacker_Cancel(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	a, err := New(Config{BaseURL: srv.URL, Rate: 10, Duration: time.Minute})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	results, err := a.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Len(t, results, 1, "the second target is skipped")

	results, err = a.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no scheme", Config{BaseURL: "localhost:3001", Rate: 1, Duration: time.Second}},
		{"zero rate", Config{BaseURL: "http://localhost:3001", Rate: 0, Duration: time.Second}},
		{"zero duration", Config{BaseURL: "http://localhost:3001", Rate: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}

	a, err := New(Config{BaseURL: "http://localhost:3001", Rate: 1, Duration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, DefaultTargets(), a.cfg.Targets)
}
