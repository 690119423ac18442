// Package bench times individual restful-booker calls over a fixed number of
// rounds per case.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/http"
	"github.com/wesleyorama2/booker/internal/load"
)

// Env is what a round can use.
type Env struct {
	Client *booker.Client
	Creds  booker.Credentials
	// Token is set for cases with NeedsToken.
	Token string
}

// Case is one benchmark. Run returns an error when the round failed.
type Case struct {
	Name       string
	Rounds     int
	NeedsToken bool
	Run        func(ctx context.Context, env *Env) error
}

// Result holds per-case timings in milliseconds.
type Result struct {
	Name     string  `json:"name"`
	Rounds   int     `json:"rounds"`
	Failures int     `json:"failures"`
	Min      float64 `json:"min_ms"`
	Max      float64 `json:"max_ms"`
	Mean     float64 `json:"mean_ms"`
	StdDev   float64 `json:"stddev_ms"`
	Median   float64 `json:"median_ms"`
	// Errors lists distinct failure messages.
	Errors []string `json:"errors,omitempty"`
}

// Failed reports whether any round failed.
func (r Result) Failed() bool {
	return r.Failures > 0
}

// StatusError is a round that received a status outside the accepted set.
type StatusError struct {
	Operation string
	Status    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.Status)
}

// DefaultCases returns ping x10, auth x5, list x5 and create-get-delete x3.
func DefaultCases() []Case {
	return []Case{
		{Name: "ping", Rounds: 10, Run: pingRound},
		{Name: "auth", Rounds: 5, Run: authRound},
		{Name: "bookings_list", Rounds: 5, Run: listRound},
		{Name: "create_get_delete_flow", Rounds: 3, NeedsToken: true, Run: flowRound},
	}
}

// Suite runs cases against one client.
type Suite struct {
	client *booker.Client
	creds  booker.Credentials
	logger *zap.Logger
}

// NewSuite creates a suite.
func NewSuite(client *booker.Client, creds booker.Credentials, logger *zap.Logger) *Suite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suite{client: client, creds: creds, logger: logger}
}

// Run executes every case in order. The token is acquired once, before the
// first case that needs it; if that fails those cases fail every round.
func (s *Suite) Run(ctx context.Context, cases []Case) []Result {
	env := &Env{Client: s.client, Creds: s.creds}
	var tokenErr error
	tokenDone := false

	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		if c.NeedsToken && !tokenDone {
			env.Token, tokenErr = s.token(ctx)
			tokenDone = true
		}
		if c.NeedsToken && tokenErr != nil {
			results = append(results, Result{
				Name:     c.Name,
				Rounds:   c.Rounds,
				Failures: c.Rounds,
				Errors:   []string{"admin token: " + tokenErr.Error()},
			})
			continue
		}
		results = append(results, s.runCase(ctx, c, env))
	}
	return results
}

func (s *Suite) runCase(ctx context.Context, c Case, env *Env) Result {
	res := Result{Name: c.Name, Rounds: c.Rounds}
	seen := make(map[string]bool)
	ms := make([]float64, 0, c.Rounds)

	for i := 0; i < c.Rounds; i++ {
		start := time.Now()
		err := c.Run(ctx, env)
		elapsed := time.Since(start)

		ms = append(ms, float64(elapsed)/float64(time.Millisecond))
		if err != nil {
			res.Failures++
			if msg := err.Error(); !seen[msg] {
				seen[msg] = true
				res.Errors = append(res.Errors, msg)
			}
			s.logger.Debug("benchmark round failed",
				zap.String("case", c.Name), zap.Int("round", i+1), zap.Error(err))
		}
	}

	res.describe(ms)
	return res
}

// describe fills the timing fields from every round, failed ones included.
// StdDev is the sample standard deviation, zero below two rounds.
func (r *Result) describe(ms []float64) {
	n := len(ms)
	if n == 0 {
		return
	}
	sorted := append([]float64(nil), ms...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	var sq float64
	if n > 1 {
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		sq /= float64(n - 1)
	}

	r.Min = load.Round2(sorted[0])
	r.Max = load.Round2(sorted[n-1])
	r.Mean = load.Round2(mean)
	r.Median = load.Round2(median)
	r.StdDev = load.Round2(math.Sqrt(sq))
}

func (s *Suite) token(ctx context.Context) (string, error) {
	resp, err := s.client.CreateToken(ctx, s.creds)
	if err != nil {
		return "", err
	}
	if !booker.SuccessStatus(resp.StatusCode) {
		return "", &StatusError{Operation: "auth", Status: resp.StatusCode}
	}
	return booker.TokenFrom(resp)
}

func expect(op string, resp *http.Response, err error, accept func(int) bool) error {
	if err != nil {
		return err
	}
	if !accept(resp.StatusCode) {
		return &StatusError{Operation: op, Status: resp.StatusCode}
	}
	return nil
}

func only200(code int) bool { return code == 200 }

func pingRound(ctx context.Context, env *Env) error {
	resp, err := env.Client.Ping(ctx)
	return expect("ping", resp, err, booker.SuccessStatus)
}

func authRound(ctx context.Context, env *Env) error {
	resp, err := env.Client.CreateToken(ctx, env.Creds)
	if err := expect("auth", resp, err, booker.SuccessStatus); err != nil {
		return err
	}
	_, err = booker.TokenFrom(resp)
	return err
}

func listRound(ctx context.Context, env *Env) error {
	resp, err := env.Client.ListBookings(ctx, booker.Filter{})
	if err := expect("list", resp, err, only200); err != nil {
		return err
	}
	_, err = booker.BookingIDsFrom(resp)
	return err
}

func flowRound(ctx context.Context, env *Env) error {
	if env.Token == "" {
		return errors.New("no admin token")
	}

	resp, err := env.Client.CreateBooking(ctx, booker.NewBookingPayload())
	if err := expect("create", resp, err, booker.SuccessStatus); err != nil {
		return err
	}
	id, err := booker.BookingIDFrom(resp)
	if err != nil {
		return err
	}

	resp, err = env.Client.GetBooking(ctx, id)
	if err := expect("get", resp, err, only200); err != nil {
		return err
	}

	resp, err = env.Client.DeleteBooking(ctx, id, env.Token)
	return expect("delete", resp, err, booker.SuccessStatus)
}
