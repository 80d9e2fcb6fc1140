package model

import "fmt"

// ValidationError reports input rejected before any state change: an
// empty topic, empty credentials, a duplicate username. The caller is
// expected to re-prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
