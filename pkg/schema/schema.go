// Package schema is the syntactic gate run before semantic validation.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed wfl.schema.json
var document []byte

var ErrSchemaViolation = errors.New("schema violation")

// Error lists every schema error found in a document.
type Error struct {
	Details []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(e.Details, "; "))
}

func (e *Error) Is(target error) bool {
	return target == ErrSchemaViolation
}

var compiled = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(document))
})

// Document returns the embedded JSON schema.
func Document() []byte {
	return document
}

// Validate checks doc against the workflow schema.
func Validate(doc []byte) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("load workflow schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return &Error{Details: details}
	}

	return nil
}
