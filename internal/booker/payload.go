package booker

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fixed stay window used by the load paths.
const (
	LoadCheckin  = "2026-02-01"
	LoadCheckout = "2026-02-03"
)

const dateLayout = "2006-01-02"

// UniqueName returns prefix followed by eight random hex digits, e.g.
// "Fn-1a2b3c4d". Concurrent workers use it to avoid colliding bookings.
func UniqueName(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + id[:8]
}

// PayloadOption overrides a field of a generated booking.
type PayloadOption func(*Booking)

// WithNames sets first and last name.
func WithNames(firstname, lastname string) PayloadOption {
	return func(b *Booking) {
		b.Firstname = firstname
		b.Lastname = lastname
	}
}

// WithDates sets the stay window.
func WithDates(checkin, checkout string) PayloadOption {
	return func(b *Booking) {
		b.BookingDates = BookingDates{Checkin: checkin, Checkout: checkout}
	}
}

// WithDeposit sets depositpaid.
func WithDeposit(paid bool) PayloadOption {
	return func(b *Booking) {
		b.DepositPaid = paid
	}
}

// WithPrice sets totalprice.
func WithPrice(price float64) PayloadOption {
	return func(b *Booking) {
		b.TotalPrice = price
	}
}

// NewBookingPayload builds a booking with unique names, price 123, no
// deposit, a stay from today to today+2 and "Breakfast".
func NewBookingPayload(opts ...PayloadOption) Booking {
	today := time.Now().UTC()
	b := Booking{
		Firstname:   UniqueName("Fn-"),
		Lastname:    UniqueName("Ln-"),
		TotalPrice:  123,
		DepositPaid: false,
		BookingDates: BookingDates{
			Checkin:  today.Format(dateLayout),
			Checkout: today.AddDate(0, 0, 2).Format(dateLayout),
		},
		AdditionalNeeds: "Breakfast",
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// LoadBookingPayload is the payload sent by the load workflow: unique names,
// deposit paid and the fixed 2026 stay window.
func LoadBookingPayload() Booking {
	return NewBookingPayload(WithDeposit(true), WithDates(LoadCheckin, LoadCheckout))
}
