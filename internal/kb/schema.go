package kb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaMismatch marks a table file rejected by its JSON schema.
var ErrSchemaMismatch = errors.New("table does not implement schema")

var compiledSchemas = sync.OnceValues(func() (map[Table]*jsonschema.Schema, error) {
	out := make(map[Table]*jsonschema.Schema, len(tables))
	for _, t := range tables {
		raw, err := embedded.ReadFile("data/" + t.schemaName())
		if err != nil {
			return nil, err
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		url := "dftemplate://" + t.schemaName()
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", t, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", t, err)
		}
		out[t] = schema
	}
	return out, nil
})

// Validate checks raw JSON against the schema of table t.
func Validate(t Table, raw []byte) error {
	schemas, err := compiledSchemas()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := schemas[t].Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, describeValidation(err))
	}
	return nil
}

// describeValidation reduces a validation error to its deepest cause.
func describeValidation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
