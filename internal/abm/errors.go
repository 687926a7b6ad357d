package abm

import "fmt"

// InvalidParameterError reports a structurally invalid request. It is always
// returned before any simulation work begins; the caller can recover by
// correcting the named field.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// NumericOverflowError reports that a simulation step produced a non-finite
// value. The affected path is aborted at that step; sibling paths are not.
// These failures are deterministic for a given request, so retrying with the
// same input reproduces them.
type NumericOverflowError struct {
	PathIndex int `json:"path_index"`
	Step      int `json:"step"`
}

func (e *NumericOverflowError) Error() string {
	return fmt.Sprintf("non-finite value at path %d, step %d", e.PathIndex, e.Step)
}
