package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const contentTypeJSON = "application/json"

// Request is a call relative to a client's base URL. Bodies other than
// raw bytes are sent as JSON.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    interface{}
}

// NewRequest creates a request for method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   url.Values{},
		Headers: http.Header{},
	}
}

// WithHeader sets a header, replacing any previous value.
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers.Set(key, value)
	return r
}

// WithQuery adds a query parameter.
func (r *Request) WithQuery(key, value string) *Request {
	r.Query.Add(key, value)
	return r
}

// WithQueryParams adds every non-empty entry of params.
func (r *Request) WithQueryParams(params map[string]string) *Request {
	for key, value := range params {
		if value != "" {
			r.Query.Add(key, value)
		}
	}
	return r
}

func (r *Request) WithBody(body interface{}) *Request {
	r.Body = body
	return r
}

// WithCookie appends a cookie to the Cookie header.
func (r *Request) WithCookie(name, value string) *Request {
	c := (&http.Cookie{Name: name, Value: value}).String()
	if prev := r.Headers.Get("Cookie"); prev != "" {
		c = prev + "; " + c
	}
	r.Headers.Set("Cookie", c)
	return r
}

// Build resolves the request against baseURL.
func (r *Request) Build(ctx context.Context, baseURL string) (*http.Request, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	target := base.JoinPath(r.Path)
	target.RawQuery = r.Query.Encode()

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	for key, values := range r.Headers {
		req.Header[key] = append([]string(nil), values...)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case json.RawMessage:
		return bytes.NewReader(b), contentTypeJSON, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(raw), contentTypeJSON, nil
	}
}
