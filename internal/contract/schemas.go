package contract

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/wesleyorama2/booker/pkg/jsonschema"
)

// Schema names.
const (
	SchemaAuthToken      = "auth_token_response"
	SchemaBooking        = "booking_object"
	SchemaCreateResponse = "booking_create_response"
	SchemaBookingsList   = "bookings_list"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var schemas = mustLoadSchemas(schemaFiles)

func mustLoadSchemas(fsys fs.FS) map[string]*jsonschema.Schema {
	files, err := fs.Glob(fsys, "schemas/*.json")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*jsonschema.Schema, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			panic(err)
		}
		name := strings.TrimSuffix(path.Base(file), ".json")
		out[name] = jsonschema.MustCompile(name, string(data))
	}
	return out
}

// SchemaNames lists the embedded schemas.
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckSchema validates body against the named schema. It returns a
// *Violation listing every offending field.
func CheckSchema(name string, body []byte) error {
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	if problems := s.Validate(body); len(problems) > 0 {
		return &Violation{Subject: name, Problems: problems}
	}
	return nil
}
