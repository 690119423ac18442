package load

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
}

func (o *recordingObserver) Observe(operation string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	o.calls[operation]++
}

func TestSamples_ConcurrentAppend(t *testing.T) {
	samples := NewSamples()

	const workers, perWorker = 50, 200
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				for _, op := range Operations {
					samples.Record(op, time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()

	for _, op := range Operations {
		assert.Equal(t, workers*perWorker, samples.Count(op), op)
	}
}

func TestSamples_RecordMilliseconds(t *testing.T) {
	samples := NewSamples()
	samples.Record(OpGet, 1500*time.Microsecond)

	assert.Equal(t, []float64{1.5}, samples.Snapshot(OpGet))
	assert.Empty(t, samples.Snapshot(OpPing))
}

func TestSamples_SnapshotIsCopy(t *testing.T) {
	samples := NewSamples()
	samples.Append(OpPing, 1)

	snap := samples.Snapshot(OpPing)
	snap[0] = 99
	assert.Equal(t, []float64{1}, samples.Snapshot(OpPing))
}

func TestSamples_Observers(t *testing.T) {
	obs := &recordingObserver{}
	samples := NewSamples(obs)

	samples.Record(OpPing, time.Millisecond)
	samples.Record(OpPing, time.Millisecond)
	samples.Record(OpAuth, time.Millisecond)
	samples.Append(OpGet, 3)

	assert.Equal(t, map[string]int{"ping": 2, "auth": 1}, obs.calls)
}

func TestSamples_UnknownOperation(t *testing.T) {
	samples := NewSamples()
	assert.Equal(t, 0, samples.Count(Operation("list")))
	assert.Nil(t, samples.Snapshot(Operation("list")))

	samples.Append(Operation("list"), 4)
	assert.Equal(t, 1, samples.Count(Operation("list")))
	assert.Equal(t, append(append([]Operation{}, Operations...), "list"), samples.Operations())
}
