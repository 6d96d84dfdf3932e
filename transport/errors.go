package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/crmarques/restresource/faults"
)

// StatusError is the cause attached to transport failures that carry an HTTP
// response.
type StatusError struct {
	Status  int
	Body    string
	Headers http.Header
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote request failed with status %d: %s", e.Status, e.Body)
}

// NewStatusError classifies an HTTP failure. The result is always a
// faults.TransportError whose cause carries the finer category.
func NewStatusError(status int, body string, headers http.Header) error {
	cause := &StatusError{Status: status, Body: body, Headers: headers}

	category := faults.TransportError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = faults.AuthError
	case status == http.StatusNotFound:
		category = faults.NotFoundError
	case status == http.StatusConflict:
		category = faults.ConflictError
	case status >= 400 && status < 500:
		category = faults.ValidationError
	}

	classified := faults.NewTypedError(category, "", cause)
	if category == faults.TransportError {
		return classified
	}
	return faults.NewTypedError(faults.TransportError, "", classified)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}
