package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseError reports a body that is not JSON or lacks an expected value.
// Callers in the load paths treat it as "value absent".
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse error: " + e.Reason
	}
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Reason)
}

// Parse validates raw as JSON and returns its root value.
func Parse(raw []byte) (gjson.Result, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return gjson.Result{}, &ParseError{Reason: "empty body"}
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &ParseError{Reason: "body is not valid JSON"}
	}
	return gjson.ParseBytes(raw), nil
}

// Lookup extracts the value at a JSONPath expression from raw JSON.
// A missing or null value is reported as a *ParseError.
func Lookup(raw []byte, path string) (gjson.Result, error) {
	if path == "" {
		return gjson.Result{}, &ParseError{Reason: "empty JSONPath expression"}
	}
	root, err := Parse(raw)
	if err != nil {
		pe := err.(*ParseError)
		pe.Path = path
		return gjson.Result{}, pe
	}

	result := root.Get(convertToGjsonPath(path))
	if !result.Exists() {
		return gjson.Result{}, &ParseError{Path: path, Reason: "path not found"}
	}
	if result.Type == gjson.Null {
		return gjson.Result{}, &ParseError{Path: path, Reason: "value is null"}
	}
	return result, nil
}

// convertToGjsonPath converts a JSONPath expression to a gjson path.
//
//	$.booking.bookingdates.checkin -> booking.bookingdates.checkin
//	$[0].bookingid                 -> 0.bookingid
func convertToGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	path = strings.ReplaceAll(path, "['", ".")
	path = strings.ReplaceAll(path, "']", "")
	path = strings.ReplaceAll(path, "[\"", ".")
	path = strings.ReplaceAll(path, "\"]", "")
	path = strings.ReplaceAll(path, "[", ".")
	path = strings.ReplaceAll(path, "]", "")

	return strings.TrimPrefix(path, ".")
}
