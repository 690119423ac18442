// Package booker is a typed client for the restful-booker REST API.
package booker

import "net/http"

// DefaultBaseURL is the public restful-booker deployment.
const DefaultBaseURL = "https://restful-booker.herokuapp.com"

// Default credentials published in the restful-booker documentation.
const (
	DefaultUsername = "admin"
	DefaultPassword = "password123"
)

// TokenCookie is the cookie name that carries the auth token.
const TokenCookie = "token"

// Credentials is the username/password pair sent to /auth.
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// DefaultCredentials returns the documented admin credentials.
func DefaultCredentials() Credentials {
	return Credentials{Username: DefaultUsername, Password: DefaultPassword}
}

// BookingDates is the stay window of a booking.
type BookingDates struct {
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
}

// Booking is the booking resource as sent and returned by the API.
type Booking struct {
	Firstname       string       `json:"firstname"`
	Lastname        string       `json:"lastname"`
	TotalPrice      float64      `json:"totalprice"`
	DepositPaid     bool         `json:"depositpaid"`
	BookingDates    BookingDates `json:"bookingdates"`
	AdditionalNeeds string       `json:"additionalneeds,omitempty"`
}

// Filter narrows GET /booking.
type Filter struct {
	Firstname string
	Lastname  string
	Checkin   string
	Checkout  string
}

func (f Filter) params() map[string]string {
	return map[string]string{
		"firstname": f.Firstname,
		"lastname":  f.Lastname,
		"checkin":   f.Checkin,
		"checkout":  f.Checkout,
	}
}

// SuccessStatus reports whether code is one of the statuses the API uses for
// success (ping historically answers 201, delete 201).
func SuccessStatus(code int) bool {
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return true
	}
	return false
}
