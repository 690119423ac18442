// Package attack hits read-only restful-booker endpoints at a constant
// request rate.
package attack

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"

	"github.com/wesleyorama2/booker/internal/load"
	"github.com/wesleyorama2/booker/internal/metrics"
)

// Target is one endpoint to attack.
type Target struct {
	Name   string
	Method string
	Path   string
}

// DefaultTargets are the unauthenticated reads: GET /ping and GET /booking.
func DefaultTargets() []Target {
	return []Target{
		{Name: "ping", Method: "GET", Path: "/ping"},
		{Name: "bookings_list", Method: "GET", Path: "/booking"},
	}
}

// Config describes one attack per target.
type Config struct {
	BaseURL  string
	Rate     int
	Duration time.Duration
	Timeout  time.Duration
	Targets  []Target
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.BaseURL)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	}
	if len(c.Targets) == 0 {
		return errors.New("no targets")
	}
	return nil
}

// Result summarises the attack on one target. Latencies are milliseconds.
type Result struct {
	Name        string         `json:"name"`
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	Requests    uint64         `json:"requests"`
	Success     float64        `json:"success_ratio"`
	Throughput  float64        `json:"throughput"`
	Mean        float64        `json:"mean_ms"`
	P95         float64        `json:"p95_ms"`
	P99         float64        `json:"p99_ms"`
	Max         float64        `json:"max_ms"`
	// StatusCodes counts responses by code; "0" means no response.
	StatusCodes map[string]int `json:"status_codes"`
	Errors      []string       `json:"errors,omitempty"`
}

// Attacker runs vegeta attacks.
type Attacker struct {
	cfg      Config
	observer load.Observer
	logger   *zap.Logger
}

// Option configures an Attacker.
type Option func(*Attacker)

// WithObserver forwards every response latency under the target name.
func WithObserver(o load.Observer) Option {
	return func(a *Attacker) {
		a.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Attacker) {
		a.logger = logger
	}
}

// New validates cfg. Empty targets default to DefaultTargets.
func New(cfg Config, opts ...Option) (*Attacker, error) {
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Attacker{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run attacks each target in turn. Cancelling ctx stops the current attack
// and skips the rest; the results gathered so far are returned with the
// context error.
func (a *Attacker) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(a.cfg.Targets))
	for _, t := range a.cfg.Targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, a.attack(ctx, t))
	}
	return results, ctx.Err()
}

func (a *Attacker) attack(ctx context.Context, t Target) Result {
	target := vegeta.Target{
		Method: t.Method,
		URL:    strings.TrimSuffix(a.cfg.BaseURL, "/") + t.Path,
	}
	opts := []func(*vegeta.Attacker){vegeta.KeepAlive(true)}
	if a.cfg.Timeout > 0 {
		opts = append(opts, vegeta.Timeout(a.cfg.Timeout))
	}
	atk := vegeta.NewAttacker(opts...)
	rate := vegeta.Rate{Freq: a.cfg.Rate, Per: time.Second}

	stop := context.AfterFunc(ctx, func() { atk.Stop() })
	defer stop()

	a.logger.Info("attack started",
		zap.String("target", t.Name), zap.String("url", target.URL),
		zap.Int("rate", a.cfg.Rate), zap.Duration("duration", a.cfg.Duration))

	var m vegeta.Metrics
	for res := range atk.Attack(vegeta.NewStaticTargeter(target), rate, a.cfg.Duration, t.Name) {
		m.Add(res)
		if a.observer != nil && res.Code != 0 {
			a.observer.Observe(t.Name, res.Latency)
		}
	}
	m.Close()

	return Result{
		Name:        t.Name,
		Method:      target.Method,
		URL:         target.URL,
		Requests:    m.Requests,
		Success:     m.Success,
		Throughput:  load.Round2(m.Throughput),
		Mean:        load.Round2(metrics.Millis(m.Latencies.Mean)),
		P95:         load.Round2(metrics.Millis(m.Latencies.P95)),
		P99:         load.Round2(metrics.Millis(m.Latencies.P99)),
		Max:         load.Round2(metrics.Millis(m.Latencies.Max)),
		StatusCodes: m.StatusCodes,
		Errors:      m.Errors,
	}
}
