package load

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/booker/bookertest"
	"github.com/wesleyorama2/booker/internal/http"
)

func testClient(url string) *booker.Client {
	return booker.New(url, http.WithTimeout(2*time.Second))
}

func runConfig(users int, d time.Duration) Config {
	return Config{Users: users, Duration: d, Credentials: booker.DefaultCredentials()}
}

func TestWorkflow_FullIteration(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	samples := NewSamples()
	it := NewWorkflow(testClient(srv.URL), booker.DefaultCredentials(), samples, nil).Run(context.Background(), 0)

	assert.NotEmpty(t, it.Token)
	assert.Positive(t, it.BookingID)
	assert.True(t, it.Fetched)
	assert.True(t, it.Deleted)
	for _, op := range Operations {
		assert.Equal(t, 1, samples.Count(op), op)
	}
	assert.Equal(t, 0, srv.Len())
	assert.EqualValues(t, 1, srv.DeletesWithToken.Load())
	assert.Equal(t, 5, it.Responses)
}

func TestWorkflow_MissingTokenDeletesWithoutCookie(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{DropToken: true})
	defer srv.Close()

	samples := NewSamples()
	it := NewWorkflow(testClient(srv.URL), booker.DefaultCredentials(), samples, nil).Run(context.Background(), 0)

	assert.Empty(t, it.Token)
	assert.True(t, it.Deleted)
	assert.Equal(t, 1, samples.Count(OpDelete))
	assert.EqualValues(t, 1, srv.DeletesWithoutToken.Load())
	assert.EqualValues(t, 0, srv.DeletesWithToken.Load())
	// The anonymous delete was refused, the booking is still there.
	assert.Equal(t, 1, srv.Len())
}

func TestWorkflow_NonJSONAuth(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{NonJSONAuth: true, AnonymousDelete: true})
	defer srv.Close()

	samples := NewSamples()
	it := NewWorkflow(testClient(srv.URL), booker.DefaultCredentials(), samples, nil).Run(context.Background(), 0)

	assert.Empty(t, it.Token)
	assert.Equal(t, 1, samples.Count(OpAuth))
	assert.True(t, it.Deleted)
	assert.Equal(t, 0, srv.Len())
}

func TestWorkflow_CreateWithoutID(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{CreateWithoutID: true})
	defer srv.Close()

	samples := NewSamples()
	it := NewWorkflow(testClient(srv.URL), booker.DefaultCredentials(), samples, nil).Run(context.Background(), 0)

	assert.Zero(t, it.BookingID)
	assert.Equal(t, 1, samples.Count(OpCreate))
	assert.Equal(t, 0, samples.Count(OpGet))
	assert.Equal(t, 0, samples.Count(OpDelete))
}

func TestRunner_Reachable(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	samples := NewSamples()
	runner := NewRunner(testClient(srv.URL), samples, runConfig(3, 200*time.Millisecond))
	require.NoError(t, runner.Run(context.Background()))

	assert.Positive(t, runner.Iterations())
	assert.Positive(t, samples.Count(OpPing))
	assert.Equal(t, samples.Count(OpPing), samples.Count(OpAuth))
	assert.GreaterOrEqual(t, samples.Count(OpCreate), samples.Count(OpGet))
	assert.Equal(t, samples.Count(OpGet), samples.Count(OpDelete))
	assert.EqualValues(t, runner.Iterations(), samples.Count(OpPing))

	// Every created booking was deleted exactly once.
	assert.Equal(t, 0, srv.Len())
	assert.EqualValues(t, samples.Count(OpDelete), srv.Count("DELETE /booking/{id}"))
	assert.Equal(t, 0, runner.ActiveWorkers())
}

func TestRunner_UnreachableHost(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	url := srv.URL
	srv.Close()

	samples := NewSamples()
	runner := NewRunner(testClient(url), samples, runConfig(5, 150*time.Millisecond))
	require.NoError(t, runner.Run(context.Background()))

	report := Aggregate(samples)
	assert.Equal(t, 0, report.Total())

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Equal(t, `{"ping":{},"auth":{},"create":{},"get":{},"delete":{}}`, string(data))
}

func TestRunner_UnreachableHostBacksOff(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	url := srv.URL
	srv.Close()

	runner := NewRunner(testClient(url), NewSamples(), runConfig(2, 300*time.Millisecond),
		WithIdleBackoff(50*time.Millisecond))

	start := time.Now()
	require.NoError(t, runner.Run(context.Background()))
	elapsed := time.Since(start)

	// At most one iteration per backoff window per worker, plus the first.
	assert.Positive(t, runner.Iterations())
	assert.LessOrEqual(t, runner.Iterations(), int64(2*(300/50+1)))
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRunner_NoBackoffWhileResponding(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{FailCreate: true})
	defer srv.Close()

	runner := NewRunner(testClient(srv.URL), NewSamples(), runConfig(1, 100*time.Millisecond),
		WithIdleBackoff(time.Hour))

	start := time.Now()
	require.NoError(t, runner.Run(context.Background()))
	assert.Greater(t, runner.Iterations(), int64(1))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunner_FailedCreateSkipsDependentSteps(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{FailCreate: true})
	defer srv.Close()

	samples := NewSamples()
	runner := NewRunner(testClient(srv.URL), samples, runConfig(2, 100*time.Millisecond))
	require.NoError(t, runner.Run(context.Background()))

	assert.Positive(t, samples.Count(OpCreate))
	assert.Equal(t, 0, samples.Count(OpGet))
	assert.Equal(t, 0, samples.Count(OpDelete))
}

func TestRunner_DeadlineFromClock(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	var ticks atomic.Int64
	base := time.Unix(0, 0)
	clock := func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)-1) * time.Second)
	}

	samples := NewSamples()
	runner := NewRunner(testClient(srv.URL), samples, runConfig(1, 2500*time.Millisecond), WithClock(clock))
	require.NoError(t, runner.Run(context.Background()))

	// Deadline at t=2.5s; checks at t=1s and t=2s pass, t=3s stops.
	assert.EqualValues(t, 2, runner.Iterations())
	assert.Equal(t, 2, samples.Count(OpPing))
}

func TestRunner_Pacing(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	cfg := runConfig(1, 100*time.Millisecond)
	cfg.Pacing = 80 * time.Millisecond

	runner := NewRunner(testClient(srv.URL), NewSamples(), cfg)
	require.NoError(t, runner.Run(context.Background()))
	assert.GreaterOrEqual(t, runner.Iterations(), int64(1))
	assert.LessOrEqual(t, runner.Iterations(), int64(2))
}

func TestRunner_CancelledContext(t *testing.T) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := NewSamples()
	runner := NewRunner(testClient(srv.URL), samples, runConfig(4, time.Minute))

	start := time.Now()
	require.NoError(t, runner.Run(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, runner.Iterations())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, runConfig(1, time.Second).Validate())
	assert.Error(t, runConfig(0, time.Second).Validate())
	assert.Error(t, runConfig(1, 0).Validate())

	cfg := runConfig(1, time.Second)
	cfg.Pacing = -time.Second
	assert.Error(t, cfg.Validate())

	runner := NewRunner(testClient("http://127.0.0.1:1"), NewSamples(), runConfig(0, time.Second))
	assert.Error(t, runner.Run(context.Background()))
}

func BenchmarkWorkflow(b *testing.B) {
	srv := bookertest.NewServer(bookertest.Options{})
	defer srv.Close()

	w := NewWorkflow(testClient(srv.URL), booker.DefaultCredentials(), NewSamples(), nil)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Run(ctx, 0)
	}
}
