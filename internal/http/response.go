package http

import (
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/booker/pkg/jsonpath"
)

// TimingInfo holds the latency of one exchange. TotalTime ends when the
// body has been read, so it is the value recorded as a sample.
type TimingInfo struct {
	StartTime       time.Time
	TimeToFirstByte time.Duration
	TotalTime       time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Timing     TimingInfo
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON decodes the whole body. The error, if any, is a *jsonpath.ParseError.
func (r *Response) JSON() (gjson.Result, error) {
	return jsonpath.Parse(r.Body)
}

// Field extracts a single value from a JSON body. The error, if any, is a
// *jsonpath.ParseError.
func (r *Response) Field(path string) (gjson.Result, error) {
	return jsonpath.Lookup(r.Body, path)
}

