// backend-go/internal/domain/errors.go
package domain

import "fmt"

// SchemaError reports a required logical column that could not be resolved
// against any of its known aliases. Fatal for the whole normalization call.
type SchemaError struct {
	Column  string
	Aliases []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found (accepted aliases: %v)", e.Column, e.Aliases)
}

// ForecastError reports that no prediction could be produced for a material.
// Fatal for that material only; batch callers skip and continue.
type ForecastError struct {
	Material string
	Reason   string
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("forecast failed for material %q: %s", e.Material, e.Reason)
}

// PolicyInputError reports a forecast row missing fields the procurement
// policy needs. Fatal for that material's recommendation only; it must never
// abort sibling materials in a batch.
type PolicyInputError struct {
	Material string
	Field    string
}

func (e *PolicyInputError) Error() string {
	return fmt.Sprintf("forecast for material %q is missing required field %q", e.Material, e.Field)
}
