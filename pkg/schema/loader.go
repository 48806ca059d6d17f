// Package schema validates evaluation record documents against the
// versioned JSON schema they are persisted with.
package schema

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed record_v1.schema.json
var recordV1 []byte

// ValidateRecord checks a record document (raw JSON bytes) against the
// v1 record schema. It returns the violation messages, empty when the
// document conforms.
func ValidateRecord(doc []byte) ([]string, error) {
	return run(gojsonschema.NewBytesLoader(recordV1), gojsonschema.NewBytesLoader(doc))
}

// Validate checks a Go value against an external schema file. Used by
// the CLI when a project carries its own schema revisions.
func Validate(schemaPath string, doc any) ([]string, error) {
	return run(gojsonschema.NewReferenceLoader("file://"+schemaPath), gojsonschema.NewGoLoader(doc))
}

func run(schemaLoader, docLoader gojsonschema.JSONLoader) ([]string, error) {
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}
