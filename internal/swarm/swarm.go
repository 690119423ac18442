// Package swarm simulates many users that each authenticate once and then
// pick weighted tasks with a random think time between them.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/config"
	"github.com/wesleyorama2/booker/internal/http"
	"github.com/wesleyorama2/booker/internal/load"
	"github.com/wesleyorama2/booker/internal/metrics"
)

// Config is fixed for the run.
type Config struct {
	Users    int
	Duration time.Duration
	// Think time is drawn uniformly from [WaitMin, WaitMax].
	WaitMin time.Duration
	WaitMax time.Duration
	// SpawnRate is users started per second; 0 starts all users at once.
	SpawnRate   float64
	Weights     map[string]int
	Credentials booker.Credentials
}

// DefaultConfig mirrors the classic booking user: 0.5-2s think time and
// ping 1, auth 2, create_get_delete 3.
func DefaultConfig() Config {
	return Config{
		Users:       5,
		Duration:    15 * time.Second,
		WaitMin:     500 * time.Millisecond,
		WaitMax:     2 * time.Second,
		Weights:     config.DefaultWeights(),
		Credentials: booker.DefaultCredentials(),
	}
}

// User is one simulated client. Its token persists across tasks.
type User struct {
	ID    int
	token string
	rng   *rand.Rand
}

// Token returns the user's current token, "" if none.
func (u *User) Token() string {
	return u.token
}

// Swarm schedules users against the booking API.
type Swarm struct {
	config  Config
	client  *booker.Client
	samples *load.Samples
	engine  *metrics.Engine
	logger  *zap.Logger
	tasks   *taskTable
	seed    int64
	now     func() time.Time

	spawned   atomic.Int32
	active    atomic.Int32
	taskMu    sync.Mutex
	taskCount map[string]int64
}

// Option configures a Swarm.
type Option func(*Swarm)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Swarm) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeed makes task selection and think times reproducible.
func WithSeed(seed int64) Option {
	return func(s *Swarm) {
		s.seed = seed
	}
}

// New validates cfg and builds a swarm recording into samples and engine.
func New(client *booker.Client, samples *load.Samples, engine *metrics.Engine, cfg Config, opts ...Option) (*Swarm, error) {
	if cfg.Users < 1 {
		return nil, fmt.Errorf("users must be at least 1, got %d", cfg.Users)
	}
	if cfg.Duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	if cfg.WaitMin < 0 || cfg.WaitMax < cfg.WaitMin {
		return nil, fmt.Errorf("invalid think time window [%s, %s]", cfg.WaitMin, cfg.WaitMax)
	}
	if cfg.SpawnRate < 0 {
		return nil, errors.New("spawn rate must not be negative")
	}
	tasks, err := newTaskTable(cfg.Weights)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = metrics.NewEngine()
	}

	s := &Swarm{
		config:    cfg,
		client:    client,
		samples:   samples,
		engine:    engine,
		logger:    zap.NewNop(),
		tasks:     tasks,
		seed:      time.Now().UnixNano(),
		now:       time.Now,
		taskCount: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run spawns users and blocks until every user has stopped. Think time is
// cut short by the deadline; a task already started runs to completion.
func (s *Swarm) Run(ctx context.Context) error {
	deadline := s.now().Add(s.config.Duration)
	runCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	s.logger.Info("swarm starting",
		zap.Int("users", s.config.Users),
		zap.Duration("duration", s.config.Duration),
		zap.Float64("spawnRate", s.config.SpawnRate))

	s.engine.SetPhase(metrics.PhaseSpawning)

	var g errgroup.Group
	for i := 0; i < s.config.Users; i++ {
		if i > 0 && s.config.SpawnRate > 0 && !sleep(runCtx, s.spawnInterval()) {
			break
		}
		u := &User{ID: i, rng: rand.New(rand.NewSource(s.seed + int64(i)))}
		s.spawned.Add(1)
		g.Go(func() error {
			s.runUser(ctx, runCtx, u)
			return nil
		})
	}
	s.engine.SetPhase(metrics.PhaseSteady)

	err := g.Wait()
	s.engine.SetPhase(metrics.PhaseDone)

	s.logger.Info("swarm finished",
		zap.Int32("spawned", s.spawned.Load()),
		zap.Int64("requests", s.engine.Snapshot().TotalRequests))
	return err
}

// runUser issues requests with ctx so an in-flight task survives the
// deadline, and checks runCtx between tasks.
func (s *Swarm) runUser(ctx, runCtx context.Context, u *User) {
	s.engine.SetActiveUsers(int(s.active.Add(1)))
	defer func() {
		s.engine.SetActiveUsers(int(s.active.Add(-1)))
	}()

	authTask(ctx, s, u)

	for runCtx.Err() == nil {
		task := s.tasks.pick(u.rng)
		task.run(ctx, s, u)
		s.countTask(task.Name)

		if !sleep(runCtx, s.thinkTime(u.rng)) {
			return
		}
	}
}

func (s *Swarm) thinkTime(rng *rand.Rand) time.Duration {
	spread := s.config.WaitMax - s.config.WaitMin
	if spread <= 0 {
		return s.config.WaitMin
	}
	return s.config.WaitMin + time.Duration(rng.Int63n(int64(spread)+1))
}

func (s *Swarm) spawnInterval() time.Duration {
	return time.Duration(float64(time.Second) / s.config.SpawnRate)
}

// sleep waits d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// do issues one call and records it. Transport failures reach only the HDR
// engine, as failed requests.
func (s *Swarm) do(ctx context.Context, u *User, op load.Operation, call func(context.Context) (*http.Response, error)) *http.Response {
	resp, err := call(ctx)
	if err != nil {
		var te *http.TransportError
		if errors.As(err, &te) {
			s.engine.RecordLatency(te.Elapsed, string(op), false)
		}
		s.logger.Debug("request failed",
			zap.String("operation", string(op)),
			zap.Int("user", u.ID),
			zap.Error(err))
		return nil
	}
	s.samples.Record(op, resp.Timing.TotalTime)
	s.engine.RecordLatency(resp.Timing.TotalTime, string(op), booker.SuccessStatus(resp.StatusCode))
	return resp
}

func (s *Swarm) countTask(name string) {
	s.taskMu.Lock()
	s.taskCount[name]++
	s.taskMu.Unlock()
}

// TaskCounts returns how many times each task ran.
func (s *Swarm) TaskCounts() map[string]int64 {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()
	out := make(map[string]int64, len(s.taskCount))
	for k, v := range s.taskCount {
		out[k] = v
	}
	return out
}

// Spawned returns how many users were started.
func (s *Swarm) Spawned() int {
	return int(s.spawned.Load())
}

// Tasks lists the active tasks in name order.
func (s *Swarm) Tasks() []Task {
	out := make([]Task, len(s.tasks.tasks))
	copy(out, s.tasks.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
