package models

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed input. Operations returning it
// leave all state unchanged.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

func Invalid(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}
