package load

import (
	"context"

	"go.uber.org/zap"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/http"
)

// Iteration describes what one workflow pass did.
type Iteration struct {
	Token     string
	BookingID int64
	Fetched   bool
	Deleted   bool
	// Responses counts steps that got any HTTP response.
	Responses int
}

// Workflow runs the ping, auth, create, get, delete sequence of one simulated
// user. Token and booking id live only for the iteration.
type Workflow struct {
	client  *booker.Client
	creds   booker.Credentials
	samples *Samples
	logger  *zap.Logger
}

// NewWorkflow creates a workflow that records into samples.
func NewWorkflow(client *booker.Client, creds booker.Credentials, samples *Samples, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{client: client, creds: creds, samples: samples, logger: logger}
}

// Run executes one iteration. Every step that receives a response records one
// sample whatever its status. A transport failure records nothing and only
// skips the steps that depend on it.
func (w *Workflow) Run(ctx context.Context, worker int) Iteration {
	var it Iteration

	w.step(ctx, worker, &it, OpPing, func(ctx context.Context) (*http.Response, error) {
		return w.client.Ping(ctx)
	})

	if resp := w.step(ctx, worker, &it, OpAuth, func(ctx context.Context) (*http.Response, error) {
		return w.client.CreateToken(ctx, w.creds)
	}); resp != nil && booker.SuccessStatus(resp.StatusCode) {
		if token, err := booker.TokenFrom(resp); err == nil {
			it.Token = token
		} else {
			w.logger.Debug("no token in auth response", zap.Int("worker", worker), zap.Error(err))
		}
	}

	resp := w.step(ctx, worker, &it, OpCreate, func(ctx context.Context) (*http.Response, error) {
		return w.client.CreateBooking(ctx, booker.LoadBookingPayload())
	})
	if resp == nil {
		return it
	}
	id, err := booker.BookingIDFrom(resp)
	if err != nil {
		w.logger.Debug("no booking id in create response",
			zap.Int("worker", worker), zap.Int("status", resp.StatusCode), zap.Error(err))
		return it
	}
	it.BookingID = id

	it.Fetched = w.step(ctx, worker, &it, OpGet, func(ctx context.Context) (*http.Response, error) {
		return w.client.GetBooking(ctx, id)
	}) != nil

	// Exactly one delete per created id, with or without a token.
	it.Deleted = w.step(ctx, worker, &it, OpDelete, func(ctx context.Context) (*http.Response, error) {
		return w.client.DeleteBooking(ctx, id, it.Token)
	}) != nil

	return it
}

func (w *Workflow) step(ctx context.Context, worker int, it *Iteration, op Operation, call func(context.Context) (*http.Response, error)) *http.Response {
	resp, err := call(ctx)
	if err != nil {
		w.logger.Debug("request failed",
			zap.String("operation", string(op)),
			zap.Int("worker", worker),
			zap.Error(err))
		return nil
	}
	it.Responses++
	w.samples.Record(op, resp.Timing.TotalTime)
	return resp
}
