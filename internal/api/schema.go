// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaID is the $id of the exported operations document.
const SchemaID = "https://wabbit.dev/schemas/operations.schema.json"

// Schemas holds the compiled variables schema of every operation.
type Schemas struct {
	compiled map[string]*jschema.Schema
}

// ReflectSchema returns the variables schema of op.
func ReflectSchema(op Operation) *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := r.Reflect(op.Input())
	schema.Version = ""
	schema.Title = op.Name
	return schema
}

// GenerateSchema renders one JSON document describing the variables of every operation.
func GenerateSchema(ops []Operation) ([]byte, error) {
	props := jsonschema.NewProperties()
	for _, op := range ops {
		props.Set(op.Name, ReflectSchema(op))
	}

	doc := &jsonschema.Schema{
		Version:     jsonschema.Version,
		ID:          jsonschema.ID(SchemaID),
		Title:       "Wabbit API operations",
		Description: "Variables accepted by each operation of POST /graphql",
		Type:        "object",
		Properties:  props,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

// CompileSchemas compiles the variables schema of each operation.
func CompileSchemas(ops []Operation) (*Schemas, error) {
	c := jschema.NewCompiler()
	compiled := make(map[string]*jschema.Schema, len(ops))

	for _, op := range ops {
		data, err := json.Marshal(ReflectSchema(op))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("operation", op.Name).Wrap(err)
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("operation", op.Name).Wrap(err)
		}

		url := op.Name + ".json"
		if err := c.AddResource(url, doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("operation", op.Name).Wrap(err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("operation", op.Name).Wrap(err)
		}
		compiled[op.Name] = sch
	}
	return &Schemas{compiled: compiled}, nil
}

// Validate checks raw variables against the schema of operation.
// Absent or null variables are validated as an empty object.
func (s *Schemas) Validate(operation string, raw json.RawMessage) error {
	sch, ok := s.compiled[operation]
	if !ok {
		return oops.Code("UNKNOWN_OPERATION").With("operation", operation).Errorf("unknown operation %q", operation)
	}

	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		raw = json.RawMessage("{}")
	}
	vars, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code("INVALID_VARIABLES").With("operation", operation).Wrap(err)
	}
	if err := sch.Validate(vars); err != nil {
		return oops.Code("INVALID_VARIABLES").With("operation", operation).Errorf("%s", formatValidationError(err))
	}
	return nil
}

// formatValidationError flattens a validation error to one line.
func formatValidationError(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, " ")
}
