package jsonpath

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createResponse = `{
	"bookingid": 42,
	"booking": {
		"firstname": "Fn-abc123",
		"lastname": "Ln-def456",
		"totalprice": 123,
		"depositpaid": true,
		"bookingdates": {"checkin": "2026-02-01", "checkout": "2026-02-03"},
		"additionalneeds": null
	}
}`

func TestLookup(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expected      string
		expectedError bool
	}{
		{name: "Integer property", path: "$.bookingid", expected: "42"},
		{name: "Without dollar prefix", path: "bookingid", expected: "42"},
		{name: "Nested property", path: "$.booking.firstname", expected: "Fn-abc123"},
		{name: "Deeply nested property", path: "$.booking.bookingdates.checkin", expected: "2026-02-01"},
		{name: "Bracket notation", path: "$['booking']['lastname']", expected: "Ln-def456"},
		{name: "Boolean property", path: "$.booking.depositpaid", expected: "true"},
		{name: "Null value", path: "$.booking.additionalneeds", expectedError: true},
		{name: "Missing property", path: "$.token", expectedError: true},
		{name: "Empty path", path: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup([]byte(createResponse), tt.path)
			if tt.expectedError {
				require.Error(t, err)
				var pe *ParseError
				assert.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestLookup_ArrayIndex(t *testing.T) {
	list := `[{"bookingid": 7}, {"id": 9}]`

	got, err := Lookup([]byte(list), "$[0].bookingid")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Int())

	got, err = Lookup([]byte(list), "$[1].id")
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Int())
}

func TestLookup_InvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"html error page", "<html><body>Service Unavailable</body></html>"},
		{"plain text", "Forbidden"},
		{"truncated", `{"token": "abc`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup([]byte(tt.body), "$.token")
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "$.token", pe.Path)
		})
	}
}

func TestParse(t *testing.T) {
	root, err := Parse([]byte(`{"token":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", root.Get("token").String())

	_, err = Parse([]byte("Created"))
	assert.EqualError(t, err, "parse error: body is not valid JSON")
}
