package booker

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUniqueName(t *testing.T) {
	pattern := regexp.MustCompile(`^Fn-[0-9a-f]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		name := UniqueName("Fn-")
		assert.Regexp(t, pattern, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestNewBookingPayload_Defaults(t *testing.T) {
	b := NewBookingPayload()

	today := time.Now().UTC()
	assert.Regexp(t, `^Fn-`, b.Firstname)
	assert.Regexp(t, `^Ln-`, b.Lastname)
	assert.Equal(t, 123.0, b.TotalPrice)
	assert.False(t, b.DepositPaid)
	assert.Equal(t, "Breakfast", b.AdditionalNeeds)

	// Tolerate a midnight rollover between the two Now() calls.
	checkin, err := time.Parse(dateLayout, b.BookingDates.Checkin)
	assert.NoError(t, err)
	assert.WithinDuration(t, today, checkin, 25*time.Hour)

	checkout, err := time.Parse(dateLayout, b.BookingDates.Checkout)
	assert.NoError(t, err)
	assert.Equal(t, 48*time.Hour, checkout.Sub(checkin))
}

func TestLoadBookingPayload(t *testing.T) {
	b := LoadBookingPayload()

	assert.True(t, b.DepositPaid)
	assert.Equal(t, LoadCheckin, b.BookingDates.Checkin)
	assert.Equal(t, LoadCheckout, b.BookingDates.Checkout)
	assert.NotEqual(t, b.Firstname, LoadBookingPayload().Firstname)
}
