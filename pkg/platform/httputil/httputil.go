// Package httputil centralizes JSON response writing and domain-error
// translation so every handler returns the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "cornerstone/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are ignored;
// the status line has already been written.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error            string               `json:"error"`
	ErrorDescription string               `json:"error_description,omitempty"`
	Fields           []dErrors.FieldError `json:"fields,omitempty"`
}

// WriteError translates a domain error into an HTTP response. Internal errors
// omit the description so infrastructure details never leak to clients;
// validation errors carry the accumulated field messages.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		body.ErrorDescription = de.Message
	}
	body.Fields = dErrors.FieldsOf(err)
	WriteJSON(w, ToHTTPStatus(code), body)
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvalidState:
		return http.StatusConflict
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
