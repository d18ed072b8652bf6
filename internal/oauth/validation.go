package oauth

import (
	"fmt"
	"strings"
)

// FieldError is a single validation rejection keyed by parameter name.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects field-keyed rejections in the order they were
// raised. It is returned whole so callers can render every problem at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether a rejection was recorded for the given field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ValidationState accumulates rejections during a validation pass.
// No partial side effects are allowed while a state is still collecting.
type ValidationState struct {
	fields []FieldError
}

// Reject records a rejection for a field.
func (s *ValidationState) Reject(field, format string, args ...any) {
	s.fields = append(s.fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Valid reports whether no rejection was recorded.
func (s *ValidationState) Valid() bool {
	return len(s.fields) == 0
}

// Err returns the collected *ValidationError, or nil when valid.
func (s *ValidationState) Err() error {
	if s.Valid() {
		return nil
	}
	return &ValidationError{Fields: s.fields}
}
