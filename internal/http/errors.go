package http

import (
	"fmt"
	"time"
)

// TransportError reports a request that never produced an HTTP response:
// DNS, connect, TLS, timeout or a broken body read.
type TransportError struct {
	Method  string
	URL     string
	Elapsed time.Duration
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	kind := "transport error"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("%s %s: %s after %s: %v", e.Method, e.URL, kind, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
