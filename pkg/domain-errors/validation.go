package domainerrors

import "errors"

// FieldError is one human-readable, field-level validation message. AttendeeID
// is empty for registration-level problems.
type FieldError struct {
	AttendeeID string `json:"attendee_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

// NewValidation builds a CodeValidation error carrying every accumulated field
// message. Validators must collect all failures before calling this, never
// short-circuit on the first.
func NewValidation(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// FieldsOf extracts the field messages from a CodeValidation error, or nil.
func FieldsOf(err error) []FieldError {
	var de *Error
	if errors.As(err, &de) && de.Code == CodeValidation {
		return de.Fields
	}
	return nil
}
