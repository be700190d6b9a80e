// Package validation checks raw front matter against the field rules of each entity kind.
package validation

import (
	"fmt"
	"strings"

	"github.com/steveyegge/roadmap/internal/types"
)

// FieldError describes one problem with one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects every field problem found in one document.
type ValidationError struct {
	Kind   types.Kind   `json:"kind"`
	Key    string       `json:"key,omitempty"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	subject := string(e.Kind)
	if e.Key != "" {
		subject = fmt.Sprintf("%s %q", e.Kind, e.Key)
	}
	return fmt.Sprintf("invalid %s: %s", subject, strings.Join(msgs, "; "))
}

// Has reports whether any error concerns field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
