package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// DefaultTimeout is applied to every request unless WithTimeout overrides it.
const DefaultTimeout = 10 * time.Second

// Client issues REST calls against a single base URL.
//
// A Client is safe for concurrent use. Load paths share one Client sized
// with WithIdleConnsPerHost so every worker keeps a warm connection.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		headers: make(map[string]string),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBaseURL sets the base URL for the client
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithIdleConnsPerHost installs a transport that keeps up to n idle
// connections to the API host. n <= 0 keeps the current transport.
func WithIdleConnsPerHost(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConns = n
		transport.MaxIdleConnsPerHost = n
		transport.IdleConnTimeout = 90 * time.Second
		c.httpClient.Transport = transport
	}
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Do executes the request and returns the response.
//
// Any HTTP status, including 4xx and 5xx, is a valid result. The only error
// returned for a request that was built successfully is a *TransportError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.Build(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	timing := TimingInfo{StartTime: time.Now()}
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(timing.StartTime)
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		timing.TotalTime = time.Since(timing.StartTime)
		return nil, &TransportError{
			Method:  req.Method,
			URL:     httpReq.URL.String(),
			Elapsed: timing.TotalTime,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	timing.TotalTime = time.Since(timing.StartTime)
	if err != nil {
		return nil, &TransportError{
			Method:  req.Method,
			URL:     httpReq.URL.String(),
			Elapsed: timing.TotalTime,
			Timeout: isTimeout(err),
			Err:     err,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       body,
		Timing:     timing,
	}, nil
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
