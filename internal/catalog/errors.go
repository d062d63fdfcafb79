package catalog

import "fmt"

// UnrecognizedEventError reports a label that normalizes to a key missing
// from the catalog. The record carrying the label is skipped.
type UnrecognizedEventError struct {
	Label      string
	Normalized string
}

func (e *UnrecognizedEventError) Error() string {
	return fmt.Sprintf("unrecognized event %q (normalized %q)", e.Label, e.Normalized)
}

// GenderConflictError reports a stated gender contradicting the gender
// implied by the event label. This is a source data fault and is never
// coerced.
type GenderConflictError struct {
	Label  string
	Stated string
}

func (e *GenderConflictError) Error() string {
	return fmt.Sprintf("event %q implies a gender conflicting with stated %q", e.Label, e.Stated)
}
