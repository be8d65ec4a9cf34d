package model

import (
	"errors"
	"fmt"
)

// StatusError is a provider failure carrying the HTTP status code of the
// underlying API response. Retry classification keys off Code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model request failed with status %d: %s", e.Code, e.Message)
}

// NewStatusError constructs a StatusError for the given code and message.
func NewStatusError(code int, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

// StatusCode extracts the status code from err if it is (or wraps) a
// StatusError. The second return reports whether a code was found.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
