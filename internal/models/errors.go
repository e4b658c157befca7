package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a post identifier does not resolve.
	ErrNotFound = errors.New("post not found")
	// ErrForbidden is returned when the caller is authenticated but does not
	// own the post it tries to modify.
	ErrForbidden = errors.New("not authorized to delete this post")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user with this email or username already exists")
)

// FieldError is a machine readable reason attached to a ValidationError.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports input that violates a constraint. Callers use it
// to trigger compensating cleanup (e.g. removing a staged upload).
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// StorageError wraps a failure of the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err unless it is nil or already one of the domain
// errors, which pass through untouched.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var se *StorageError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUserNotFound), errors.Is(err, ErrUserExists),
		errors.As(err, &ve), errors.As(err, &se):
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
