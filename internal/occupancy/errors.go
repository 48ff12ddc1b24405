package occupancy

import "fmt"

// Stable codes surfaced to callers for caller-correctable input problems.
const (
	CodeMissingFields = "missing_fields"
	CodeInvalidUID    = "invalid_uid"
	CodeInvalidValue  = "invalid_value"
)

// ValidationError reports missing or malformed input. It is raised before
// any mutation takes place.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}
