package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError describes one schema violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationResult is the outcome of validating a document.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Error flattens the violations into one message.
func (r *ValidationResult) Error() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Schema is a compiled JSON schema for job variables.
type Schema struct {
	raw      string
	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

// NewSchema wraps a JSON schema document. Compilation happens on first use.
func NewSchema(raw string) *Schema {
	return &Schema{raw: raw}
}

func (s *Schema) compile() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		s.compiled, s.err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(s.raw))
	})
	return s.compiled, s.err
}

// ValidateJSON validates a raw JSON document, as received in job variables.
func (s *Schema) ValidateJSON(document string) (*ValidationResult, error) {
	compiled, err := s.compile()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	result, err := compiled.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	return toResult(result), nil
}

// ValidateGo validates an in-memory value.
func (s *Schema) ValidateGo(value interface{}) (*ValidationResult, error) {
	compiled, err := s.compile()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}
