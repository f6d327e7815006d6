package service

import (
	"errors"

	"gorm.io/gorm"
)

type ErrorCode string

const (
	ErrorInvalid        ErrorCode = "invalid"
	ErrorUnauthorized   ErrorCode = "unauthorized"
	ErrorForbidden      ErrorCode = "forbidden"
	ErrorNotFound       ErrorCode = "not_found"
	ErrorConflict       ErrorCode = "conflict"
	ErrorNotImplemented ErrorCode = "not_implemented"
)

// ServiceError is an error the HTTP layer can show to the client as is.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewNotImplementedError(msg string) error {
	return &ServiceError{Code: ErrorNotImplemented, Message: msg}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// notFoundOr turns gorm.ErrRecordNotFound into a not found error with msg
// and leaves other errors untouched.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(msg)
	}
	return err
}
