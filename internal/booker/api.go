package booker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/booker/internal/http"
	"github.com/wesleyorama2/booker/pkg/jsonpath"
)

// Client issues restful-booker calls. Every method returns the raw response
// for any HTTP status; the error is non-nil only for transport failures.
type Client struct {
	http *http.Client
}

// NewClient wraps an HTTP client already pointed at the API base URL.
func NewClient(httpClient *http.Client) *Client {
	return &Client{http: httpClient}
}

// New builds a Client for baseURL with the given per-request timeout.
func New(baseURL string, opts ...http.ClientOption) *Client {
	opts = append([]http.ClientOption{
		http.WithBaseURL(baseURL),
		http.WithHeader("Accept", "application/json"),
	}, opts...)
	return NewClient(http.NewClient(opts...))
}

// Ping calls GET /ping.
func (c *Client) Ping(ctx context.Context) (*http.Response, error) {
	return c.http.Do(ctx, http.NewRequest("GET", "/ping"))
}

// CreateToken calls POST /auth.
func (c *Client) CreateToken(ctx context.Context, creds Credentials) (*http.Response, error) {
	return c.http.Do(ctx, http.NewRequest("POST", "/auth").WithBody(creds))
}

// CreateBooking calls POST /booking.
func (c *Client) CreateBooking(ctx context.Context, b Booking) (*http.Response, error) {
	return c.http.Do(ctx, http.NewRequest("POST", "/booking").WithBody(b))
}

// GetBooking calls GET /booking/{id}.
func (c *Client) GetBooking(ctx context.Context, id int64) (*http.Response, error) {
	return c.http.Do(ctx, http.NewRequest("GET", bookingPath(id)))
}

// ListBookings calls GET /booking with optional filters.
func (c *Client) ListBookings(ctx context.Context, filter Filter) (*http.Response, error) {
	return c.http.Do(ctx, http.NewRequest("GET", "/booking").WithQueryParams(filter.params()))
}

// UpdateBooking calls PUT /booking/{id}.
func (c *Client) UpdateBooking(ctx context.Context, id int64, b Booking, token string) (*http.Response, error) {
	return c.http.Do(ctx, withToken(http.NewRequest("PUT", bookingPath(id)).WithBody(b), token))
}

// PatchBooking calls PATCH /booking/{id} with a partial document.
func (c *Client) PatchBooking(ctx context.Context, id int64, fields map[string]interface{}, token string) (*http.Response, error) {
	return c.http.Do(ctx, withToken(http.NewRequest("PATCH", bookingPath(id)).WithBody(fields), token))
}

// DeleteBooking calls DELETE /booking/{id}. An empty token sends no
// credential.
func (c *Client) DeleteBooking(ctx context.Context, id int64, token string) (*http.Response, error) {
	return c.http.Do(ctx, withToken(http.NewRequest("DELETE", bookingPath(id)), token))
}

func bookingPath(id int64) string {
	return fmt.Sprintf("/booking/%d", id)
}

func withToken(req *http.Request, token string) *http.Request {
	if token != "" {
		req.WithCookie(TokenCookie, token)
	}
	return req
}

// TokenFrom extracts a non-empty "token" string from an /auth response.
func TokenFrom(resp *http.Response) (string, error) {
	v, err := resp.Field("$.token")
	if err != nil {
		return "", err
	}
	if v.Type != gjson.String || v.String() == "" {
		return "", &jsonpath.ParseError{Path: "$.token", Reason: "token is not a non-empty string"}
	}
	return v.String(), nil
}

// BookingIDFrom extracts the integer "bookingid" from a create response.
func BookingIDFrom(resp *http.Response) (int64, error) {
	v, err := resp.Field("$.bookingid")
	if err != nil {
		return 0, err
	}
	if v.Type != gjson.Number || v.Float() != float64(v.Int()) || v.Int() <= 0 {
		return 0, &jsonpath.ParseError{Path: "$.bookingid", Reason: fmt.Sprintf("not a positive integer: %s", v.Raw)}
	}
	return v.Int(), nil
}

// BookingIDsFrom extracts ids from a list response. Items may carry either
// "bookingid" or "id".
func BookingIDsFrom(resp *http.Response) ([]int64, error) {
	root, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, &jsonpath.ParseError{Path: "$", Reason: "expected an array"}
	}

	var ids []int64
	for _, item := range root.Array() {
		id := item.Get("bookingid")
		if !id.Exists() {
			id = item.Get("id")
		}
		if id.Type == gjson.Number {
			ids = append(ids, id.Int())
		}
	}
	return ids, nil
}

// BookingFrom decodes a booking object. When the body is a create response
// the nested "booking" object is decoded.
func BookingFrom(resp *http.Response) (Booking, error) {
	root, err := resp.JSON()
	if err != nil {
		return Booking{}, err
	}
	raw := root.Raw
	if nested := root.Get("booking"); nested.IsObject() {
		raw = nested.Raw
	}

	var b Booking
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return Booking{}, &jsonpath.ParseError{Path: "$", Reason: err.Error()}
	}
	return b, nil
}
