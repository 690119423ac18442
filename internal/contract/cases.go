package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/pkg/jsonschema"
)

// DefaultCases returns every contract case.
func DefaultCases() []Case {
	return []Case{
		{Name: "ping", Run: checkPing},
		{Name: "auth_returns_token", Run: checkAuth},
		{Name: "create_and_get_booking", Run: checkCreateAndGet},
		{Name: "bookings_list_and_filter", Run: checkListAndFilter},
		{Name: "update_put_requires_token", Run: checkUpdate},
		{Name: "update_without_token_rejected", Run: checkUpdateWithoutToken},
		{Name: "partial_update_patch_requires_token", Run: checkPatch},
		{Name: "delete_then_not_found", Run: checkDelete},
		{Name: "create_response_structure", Run: checkCreateResponse},
		{Name: "crud_flow", Run: checkCRUDFlow},
	}
}

func checkPing(ctx context.Context, s *Session) error {
	resp, err := s.Client.Ping(ctx)
	if err != nil {
		return err
	}
	return CheckStatus("ping", resp, successCodes...)
}

func checkAuth(ctx context.Context, s *Session) error {
	resp, err := s.Client.CreateToken(ctx, s.Creds)
	if err != nil {
		return err
	}
	if err := CheckStatus("auth", resp, successCodes...); err != nil {
		return err
	}
	return CheckSchema(SchemaAuthToken, resp.Body)
}

func checkCreateAndGet(ctx context.Context, s *Session) error {
	payload := booker.NewBookingPayload()
	id, _, err := s.Create(ctx, payload)
	if err != nil {
		return err
	}

	resp, err := s.Client.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := CheckStatus("get", resp, 200); err != nil {
		return err
	}
	if err := CheckSchema(SchemaBooking, resp.Body); err != nil {
		return err
	}
	got, err := booker.BookingFrom(resp)
	if err != nil {
		return err
	}
	return roundTrip("get", got, payload)
}

func checkListAndFilter(ctx context.Context, s *Session) error {
	payload := booker.NewBookingPayload(booker.WithNames(shortName("First-"), shortName("Last-")))
	id, _, err := s.Create(ctx, payload)
	if err != nil {
		return err
	}

	resp, err := s.Client.ListBookings(ctx, booker.Filter{})
	if err != nil {
		return err
	}
	if err := CheckStatus("list", resp, 200); err != nil {
		return err
	}
	if err := CheckSchema(SchemaBookingsList, resp.Body); err != nil {
		return err
	}

	resp, err = s.Client.ListBookings(ctx, booker.Filter{Firstname: payload.Firstname})
	if err != nil {
		return err
	}
	if err := CheckStatus("list filtered", resp, 200); err != nil {
		return err
	}
	ids, err := booker.BookingIDsFrom(resp)
	if err != nil {
		return err
	}
	for _, got := range ids {
		if got == id {
			return nil
		}
	}
	return &Violation{Subject: "list filtered", Problems: jsonschema.Violations{{
		Path:    "bookingid",
		Message: fmt.Sprintf("%d missing from %d filtered results", id, len(ids)),
	}}}
}

func checkUpdate(ctx context.Context, s *Session) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	payload := booker.NewBookingPayload()
	id, _, err := s.Create(ctx, payload)
	if err != nil {
		return err
	}

	updated := payload
	updated.Firstname = "Updated-" + payload.Firstname
	resp, err := s.Client.UpdateBooking(ctx, id, updated, token)
	if err != nil {
		return err
	}
	if err := CheckStatus("update", resp, successCodes...); err != nil {
		return err
	}
	if err := CheckSchema(SchemaBooking, resp.Body); err != nil {
		return err
	}
	got, err := booker.BookingFrom(resp)
	if err != nil {
		return err
	}
	return CheckField("update", "firstname", got.Firstname, updated.Firstname)
}

func checkUpdateWithoutToken(ctx context.Context, s *Session) error {
	payload := booker.NewBookingPayload()
	id, _, err := s.Create(ctx, payload)
	if err != nil {
		return err
	}
	payload.Firstname = "Anonymous-" + payload.Firstname
	resp, err := s.Client.UpdateBooking(ctx, id, payload, "")
	if err != nil {
		return err
	}
	return CheckStatus("update without token", resp, 403)
}

func checkPatch(ctx context.Context, s *Session) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	payload := booker.NewBookingPayload()
	id, _, err := s.Create(ctx, payload)
	if err != nil {
		return err
	}

	firstname := "Patched-" + payload.Firstname
	resp, err := s.Client.PatchBooking(ctx, id, map[string]interface{}{"firstname": firstname}, token)
	if err != nil {
		return err
	}
	if err := CheckStatus("patch", resp, successCodes...); err != nil {
		return err
	}
	got, err := booker.BookingFrom(resp)
	if err != nil {
		return err
	}
	if err := CheckField("patch", "firstname", got.Firstname, firstname); err != nil {
		return err
	}
	return CheckField("patch", "lastname", got.Lastname, payload.Lastname)
}

func checkDelete(ctx context.Context, s *Session) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	id, _, err := s.Create(ctx, booker.NewBookingPayload())
	if err != nil {
		return err
	}

	resp, err := s.Client.DeleteBooking(ctx, id, token)
	if err != nil {
		return err
	}
	if err := CheckStatus("delete", resp, successCodes...); err != nil {
		return err
	}
	s.Forget(id)

	resp, err = s.Client.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	return CheckStatus("get after delete", resp, 404)
}

func checkCreateResponse(ctx context.Context, s *Session) error {
	_, resp, err := s.Create(ctx, booker.NewBookingPayload())
	if err != nil {
		return err
	}
	return CheckSchema(SchemaCreateResponse, resp.Body)
}

func checkCRUDFlow(ctx context.Context, s *Session) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	payload := booker.NewBookingPayload()
	id, resp, err := s.Create(ctx, payload)
	if err != nil {
		return err
	}
	if err := CheckSchema(SchemaCreateResponse, resp.Body); err != nil {
		return err
	}

	resp, err = s.Client.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := CheckStatus("get", resp, 200); err != nil {
		return err
	}
	if err := CheckSchema(SchemaBooking, resp.Body); err != nil {
		return err
	}

	updated := payload
	updated.Lastname = "Updated-" + payload.Lastname
	updated.TotalPrice = 456
	updated.AdditionalNeeds = "Lunch"
	resp, err = s.Client.UpdateBooking(ctx, id, updated, token)
	if err != nil {
		return err
	}
	if err := CheckStatus("update", resp, 200); err != nil {
		return err
	}
	if err := CheckSchema(SchemaBooking, resp.Body); err != nil {
		return err
	}

	resp, err = s.Client.DeleteBooking(ctx, id, token)
	if err != nil {
		return err
	}
	if err := CheckStatus("delete", resp, 200, 201); err != nil {
		return err
	}
	s.Forget(id)
	return nil
}

func roundTrip(op string, got, want booker.Booking) error {
	if err := CheckField(op, "firstname", got.Firstname, want.Firstname); err != nil {
		return err
	}
	if err := CheckField(op, "lastname", got.Lastname, want.Lastname); err != nil {
		return err
	}
	return CheckField(op, "bookingdates/checkin", got.BookingDates.Checkin, want.BookingDates.Checkin)
}

func shortName(prefix string) string {
	return fmt.Sprintf("%s%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
