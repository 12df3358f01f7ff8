package workflow

import (
	"fmt"
	"strings"
)

// ConfigurationError reports missing required setup detected before the run
// can make outward calls.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Detail)
}

// NotFoundError reports an absent order, job, or dataset.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ValidationError aggregates every violation the validator hook reported.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("decision validation failed: %s", strings.Join(e.Violations, "; "))
}
