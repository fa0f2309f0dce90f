package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"sentencing-discrepancy/models"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// SchemaError is returned when an inbound record fails presence or type checks
type SchemaError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks a single case record against the variant's schema
type Validator struct {
	variant models.Variant
	schema  *jsonschema.Schema
	// field position in the schema's required list
	order map[string]int
}

// NewValidator compiles the schema for the given variant
func NewValidator(variant models.Variant) (*Validator, error) {
	schema, err := compileSchema(variant)
	if err != nil {
		return nil, err
	}
	order := make(map[string]int, len(schema.Required))
	for i, field := range schema.Required {
		order[field] = i
	}
	return &Validator{variant: variant, schema: schema, order: order}, nil
}

// Variant returns the variant the validator was compiled for
func (v *Validator) Variant() models.Variant {
	return v.variant
}

// Validate checks raw JSON and returns the typed record.
// Exactly one JSON object is accepted.
func (v *Validator) Validate(raw []byte) (*models.CaseRecord, error) {
	payload, err := decodeSingle(raw)
	if err != nil {
		return nil, &SchemaError{Message: err.Error()}
	}

	if err := v.schema.Validate(payload); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, v.violation(ve)
		}
		return nil, fmt.Errorf("failed to validate record: %w", err)
	}

	record := &models.CaseRecord{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(record); err != nil {
		return nil, &SchemaError{Message: err.Error()}
	}
	return record, nil
}

func compileSchema(variant models.Variant) (*jsonschema.Schema, error) {
	name := fmt.Sprintf("schemas/%s.json", variant)
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("no schema for variant %s: %w", variant, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

func decodeSingle(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := payload.(map[string]any); !ok {
		return nil, errors.New("expected a single JSON object")
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("unexpected trailing JSON payload")
	}
	return payload, nil
}

// violation reports one leaf of the validation error tree. Causes come back
// in no fixed order, so record-level errors win, then the field listed first
// in the schema.
func (v *Validator) violation(ve *jsonschema.ValidationError) *SchemaError {
	leaves := leafErrors(ve, nil)
	sort.SliceStable(leaves, func(i, j int) bool {
		ri, rj := v.rank(leaves[i].InstanceLocation), v.rank(leaves[j].InstanceLocation)
		if ri != rj {
			return ri < rj
		}
		if leaves[i].InstanceLocation != leaves[j].InstanceLocation {
			return leaves[i].InstanceLocation < leaves[j].InstanceLocation
		}
		if leaves[i].KeywordLocation != leaves[j].KeywordLocation {
			return leaves[i].KeywordLocation < leaves[j].KeywordLocation
		}
		return leaves[i].Message < leaves[j].Message
	})

	first := leaves[0]
	field := strings.TrimPrefix(first.InstanceLocation, "/")
	return &SchemaError{Field: field, Message: first.Message}
}

func (v *Validator) rank(location string) int {
	field, _, _ := strings.Cut(strings.TrimPrefix(location, "/"), "/")
	if field == "" {
		return -1
	}
	if i, ok := v.order[field]; ok {
		return i
	}
	return len(v.order)
}

func leafErrors(ve *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return append(out, ve)
	}
	for _, cause := range ve.Causes {
		out = leafErrors(cause, out)
	}
	return out
}
