package errors

import "fmt"

// Validation is the structured result of a validation check that does not
// throw: callers inspect Valid and show Error to the user as-is.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Ok returns a passing Validation.
func Ok() Validation {
	return Validation{Valid: true}
}

// Invalid returns a failing Validation with a formatted message.
func Invalid(format string, args ...any) Validation {
	return Validation{Error: fmt.Sprintf(format, args...)}
}

// Err converts a failing Validation into an *Error with the given code.
// Returns nil if the validation passed.
func (v Validation) Err(code Code) error {
	if v.Valid {
		return nil
	}
	return &Error{Code: code, Message: v.Error}
}
