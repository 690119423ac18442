// Package jsonschema compiles Draft 7 schemas and reports every violating
// field of a document.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RootPath names the document root in a Violation.
const RootPath = "<root>"

// Violation is one field that does not satisfy the schema.
type Violation struct {
	// Path is the slash-separated instance location, or RootPath.
	Path    string
	Message string
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// Violations is sorted by path.
type Violations []Violation

// Error implements the error interface for Violations
func (vs Violations) Error() string {
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.String()
	}
	return strings.Join(msgs, "; ")
}

// Schema is a compiled schema.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles source under name using Draft 7 semantics.
func Compile(name, source string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	url := name + ".json"
	if err := compiler.AddResource(url, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: schema}, nil
}

// MustCompile is Compile that panics on error, for package-level schemas.
func MustCompile(name, source string) *Schema {
	s, err := Compile(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Validate checks a raw JSON document. A body that is not JSON is reported
// as a single root violation.
func (s *Schema) Validate(doc []byte) Violations {
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return Violations{{Path: RootPath, Message: "invalid JSON: " + err.Error()}}
	}
	return s.ValidateValue(v)
}

// ValidateValue checks a value decoded by encoding/json.
func (s *Schema) ValidateValue(v interface{}) Violations {
	err := s.schema.Validate(v)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Violations{{Path: RootPath, Message: err.Error()}}
	}

	vs := leafViolations(ve, nil)
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Path != vs[j].Path {
			return vs[i].Path < vs[j].Path
		}
		return vs[i].Message < vs[j].Message
	})
	return dedupe(vs)
}

// Validate compiles source and checks doc in one step.
func Validate(doc, source string) (Violations, error) {
	s, err := Compile("schema", source)
	if err != nil {
		return nil, err
	}
	return s.Validate([]byte(doc)), nil
}

// leafViolations collects the innermost causes; parent errors only say that
// a subschema failed.
func leafViolations(err *jsonschema.ValidationError, out Violations) Violations {
	if len(err.Causes) == 0 {
		return append(out, Violation{Path: instancePath(err.InstanceLocation), Message: err.Message})
	}
	for _, cause := range err.Causes {
		out = leafViolations(cause, out)
	}
	return out
}

func instancePath(location string) string {
	p := strings.TrimPrefix(location, "/")
	if p == "" {
		return RootPath
	}
	return p
}

func dedupe(vs Violations) Violations {
	out := vs[:0]
	for i, v := range vs {
		if i > 0 && v == vs[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
