package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotPermitted is returned for actions the current console may not perform
var ErrNotPermitted = errors.New("not permitted")

// ValidationError is an empty or malformed required field, caught before any network call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " is required"
}

// Required returns a ValidationError for an empty field
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " is required"}
}

// RequestError is a failed call to the backend. Status is 0 when no response arrived.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NotFoundError means a share link resolved to no project
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// TransportError means the audio of a version could not be played
type TransportError struct {
	VersionID int64
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("audio for version %d unavailable: %v", e.VersionID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError or a 404 response
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 response
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func hasStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}
