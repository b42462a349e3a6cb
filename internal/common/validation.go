package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error wrapping ErrValidation, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// MaxLength returns a rule capping a string field at max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &ValidationError{
				Field:   fieldName,
				Value:   truncateValue(str),
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

func UUID(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}

	if _, err := uuid.Parse(str); err != nil {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be a valid UUID",
		}
	}
	return nil
}

// ValidateAndReturnError validates and returns InvalidArgumentError if validation fails
func ValidateAndReturnError(validator *Validator) error {
	if validator.HasErrors() {
		return InvalidArgumentError(validator.ErrorMessage())
	}
	return nil
}

// Schema is a compiled JSON Schema used to validate request bodies.
type Schema struct {
	s *jsonschema.Schema
}

// CompileSchema compiles a JSON-Schema document given as a generic map.
func CompileSchema(name string, schemaMap map[string]any) (*Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{s: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name string, schemaMap map[string]any) *Schema {
	s, err := CompileSchema(name, schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks data against the schema. Failures wrap ErrValidation.
func (s *Schema) Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: malformed json: %v", ErrValidation, err)
	}
	if err := s.s.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrValidation, leafMessage(ve))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// leafMessage reports the deepest cause, which names the offending property.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}

func truncateValue(s string) string {
	if len(s) <= 32 {
		return s
	}
	return s[:32] + "…"
}
