// Package apperr defines the error kinds shared by the scheduling and media packages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrMediaNotApproved is returned when a booking references media that is not approved.
	ErrMediaNotApproved = errors.New("media is not approved")
)

// ValidationInputError is a malformed submission. Nothing is persisted when it is returned.
type ValidationInputError struct {
	Field   string
	Message string
}

func (e *ValidationInputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationInputError.
func Invalid(field, format string, args ...any) error {
	return &ValidationInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a failure from the record store. Error() returns the store's message
// unchanged so it can be shown to the user as-is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence tags err as a record store failure. nil stays nil; ErrNotFound passes through untagged.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationInputError.
func IsValidation(err error) bool {
	var ve *ValidationInputError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMediaNotApproved):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
