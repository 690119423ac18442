// Package contract checks the restful-booker API against its documented
// statuses and response schemas.
package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/http"
)

var successCodes = []int{200, 201, 204}

// Case is one contract check. A non-nil error fails the case.
type Case struct {
	Name string
	Run  func(ctx context.Context, s *Session) error
}

// Result is the outcome of one case.
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Results is the outcome of a suite run, in case order.
type Results []Result

// Failed counts failed cases.
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if !r.Passed {
			n++
		}
	}
	return n
}

// Session is the state shared by the cases of one run. The admin token is
// requested at most once; bookings created by a case are deleted after it.
type Session struct {
	Client *booker.Client
	Creds  booker.Credentials

	token    string
	tokenErr error
	tokenSet bool
	created  []int64
}

// Token returns the admin token, requesting it on first use.
func (s *Session) Token(ctx context.Context) (string, error) {
	if !s.tokenSet {
		s.token, s.tokenErr = s.requestToken(ctx)
		s.tokenSet = true
	}
	return s.token, s.tokenErr
}

func (s *Session) requestToken(ctx context.Context) (string, error) {
	resp, err := s.Client.CreateToken(ctx, s.Creds)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	if err := CheckStatus("auth", resp, successCodes...); err != nil {
		return "", err
	}
	token, err := booker.TokenFrom(resp)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	return token, nil
}

// Create posts b, requires a success status and a bookingid, and schedules
// the booking for cleanup.
func (s *Session) Create(ctx context.Context, b booker.Booking) (int64, *http.Response, error) {
	resp, err := s.Client.CreateBooking(ctx, b)
	if err != nil {
		return 0, nil, fmt.Errorf("create: %w", err)
	}
	if err := CheckStatus("create", resp, successCodes...); err != nil {
		return 0, resp, err
	}
	id, err := booker.BookingIDFrom(resp)
	if err != nil {
		return 0, resp, fmt.Errorf("create: %w", err)
	}
	s.created = append(s.created, id)
	return id, resp, nil
}

// Forget removes id from cleanup, for cases that delete it themselves.
func (s *Session) Forget(id int64) {
	for i, c := range s.created {
		if c == id {
			s.created = append(s.created[:i], s.created[i+1:]...)
			return
		}
	}
}

// cleanup deletes what the last case created. Failures are only logged.
func (s *Session) cleanup(ctx context.Context, logger *zap.Logger) {
	if len(s.created) == 0 {
		return
	}
	// Without a token the deletes are still attempted.
	token, _ := s.Token(ctx)
	for _, id := range s.created {
		resp, err := s.Client.DeleteBooking(ctx, id, token)
		switch {
		case err != nil:
			logger.Debug("cleanup failed", zap.Int64("bookingid", id), zap.Error(err))
		case !booker.SuccessStatus(resp.StatusCode):
			logger.Debug("cleanup refused", zap.Int64("bookingid", id), zap.Int("status", resp.StatusCode))
		}
	}
	s.created = s.created[:0]
}

// Suite runs contract cases against one client.
type Suite struct {
	client *booker.Client
	creds  booker.Credentials
	logger *zap.Logger
}

// NewSuite creates a suite. A nil logger discards output.
func NewSuite(client *booker.Client, creds booker.Credentials, logger *zap.Logger) *Suite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suite{client: client, creds: creds, logger: logger}
}

// Run executes cases in order and never stops early.
func (s *Suite) Run(ctx context.Context, cases []Case) Results {
	session := &Session{Client: s.client, Creds: s.creds}
	results := make(Results, 0, len(cases))

	for _, c := range cases {
		start := time.Now()
		err := c.Run(ctx, session)
		res := Result{Name: c.Name, Passed: err == nil, Duration: time.Since(start)}
		if err != nil {
			res.Error = err.Error()
			s.logger.Info("contract case failed", zap.String("case", c.Name), zap.Error(err))
		}
		session.cleanup(ctx, s.logger)
		results = append(results, res)
	}
	return results
}

// Select returns the cases with the given names, in the order asked for.
// No names selects every case.
func Select(cases []Case, names ...string) ([]Case, error) {
	if len(names) == 0 {
		return cases, nil
	}
	byName := make(map[string]Case, len(cases))
	for _, c := range cases {
		byName[c.Name] = c
	}
	out := make([]Case, 0, len(names))
	var errs []error
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown contract case %q", name))
			continue
		}
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}
