package load

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/booker/internal/booker"
)

// Config is fixed for the whole run.
type Config struct {
	// Users is the number of concurrent workers.
	Users int
	// Duration bounds the run; a worker finishes its current iteration
	// before noticing the deadline.
	Duration time.Duration
	// Pacing is an optional pause between iterations.
	Pacing time.Duration
	// Credentials are sent to /auth every iteration.
	Credentials booker.Credentials
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.Users < 1 {
		return fmt.Errorf("users must be at least 1, got %d", c.Users)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	}
	if c.Pacing < 0 {
		return fmt.Errorf("pacing must not be negative, got %s", c.Pacing)
	}
	return nil
}

// DefaultIdleBackoff is the pause after an iteration in which no request got
// a response, so an unreachable host is not hammered in a tight loop.
const DefaultIdleBackoff = 100 * time.Millisecond

// Runner runs Users workers, each looping the workflow until the deadline.
type Runner struct {
	config   Config
	workflow *Workflow
	logger   *zap.Logger
	now      func() time.Time
	idle     time.Duration

	iterations atomic.Int64
	created    atomic.Int64
	deleted    atomic.Int64
	active     atomic.Int32
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now for deadline checks.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithIdleBackoff replaces DefaultIdleBackoff. Zero disables it.
func WithIdleBackoff(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.idle = d
	}
}

// NewRunner creates a runner that records into samples.
func NewRunner(client *booker.Client, samples *Samples, config Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		config: config,
		logger: zap.NewNop(),
		now:    time.Now,
		idle:   DefaultIdleBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.workflow = NewWorkflow(client, config.Credentials, samples, r.logger)
	return r
}

// Run starts the workers and blocks until all of them have stopped. It
// returns an error only for an invalid configuration; request failures are
// absorbed by the workflow. Cancelling ctx stops workers at the same point as
// the deadline.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	deadline := r.now().Add(r.config.Duration)
	r.logger.Info("load run starting",
		zap.Int("users", r.config.Users),
		zap.Duration("duration", r.config.Duration),
		zap.Duration("pacing", r.config.Pacing))

	var g errgroup.Group
	for i := 0; i < r.config.Users; i++ {
		worker := i
		g.Go(func() error {
			r.runWorker(ctx, worker, deadline)
			return nil
		})
	}
	err := g.Wait()

	r.logger.Info("load run finished",
		zap.Int64("iterations", r.iterations.Load()),
		zap.Int64("created", r.created.Load()),
		zap.Int64("deleted", r.deleted.Load()))
	return err
}

func (r *Runner) runWorker(ctx context.Context, worker int, deadline time.Time) {
	r.active.Add(1)
	defer r.active.Add(-1)

	for ctx.Err() == nil && r.now().Before(deadline) {
		it := r.workflow.Run(ctx, worker)
		r.iterations.Add(1)
		if it.BookingID != 0 {
			r.created.Add(1)
		}
		if it.Deleted {
			r.deleted.Add(1)
		}

		wait := r.config.Pacing
		if it.Responses == 0 && wait < r.idle {
			wait = r.idle
		}
		if wait > 0 {
			r.pause(ctx, wait, deadline)
		}
	}
}

// pause sleeps for d, but never past the deadline.
func (r *Runner) pause(ctx context.Context, d time.Duration, deadline time.Time) {
	if left := deadline.Sub(r.now()); left < d {
		d = left
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Iterations returns the number of completed workflow iterations.
func (r *Runner) Iterations() int64 {
	return r.iterations.Load()
}

// ActiveWorkers returns the number of workers currently looping.
func (r *Runner) ActiveWorkers() int {
	return int(r.active.Load())
}
