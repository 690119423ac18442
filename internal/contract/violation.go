package contract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wesleyorama2/booker/internal/http"
	"github.com/wesleyorama2/booker/pkg/jsonschema"
)

// Violation is a response that breaks the API contract: a schema mismatch,
// an unexpected status or a field that did not round-trip.
type Violation struct {
	// Subject is the schema name or the operation that was checked.
	Subject  string
	Problems jsonschema.Violations
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Subject, v.Problems.Error())
}

// CheckStatus fails unless resp carries one of want.
func CheckStatus(op string, resp *http.Response, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	codes := make([]string, len(want))
	for i, code := range want {
		codes[i] = strconv.Itoa(code)
	}
	return &Violation{Subject: op, Problems: jsonschema.Violations{{
		Path:    "status",
		Message: fmt.Sprintf("got %d, want %s", resp.StatusCode, strings.Join(codes, " or ")),
	}}}
}

// CheckField fails when a decoded field differs from what was sent.
func CheckField[T comparable](op, field string, got, want T) error {
	if got == want {
		return nil
	}
	return &Violation{Subject: op, Problems: jsonschema.Violations{{
		Path:    field,
		Message: fmt.Sprintf("got %v, want %v", got, want),
	}}}
}
