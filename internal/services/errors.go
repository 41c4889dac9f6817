package services

import (
	"fmt"
	"net/http"
)

// ServiceError is a client-facing failure carrying an HTTP status and a machine-readable code.
type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(code, msg string) error {
	return ServiceError{Status: http.StatusNotFound, Code: code, Message: msg}
}

func ErrBadRequest(code, msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Code: code, Message: msg}
}

func ErrConflict(code, msg string) error {
	return ServiceError{Status: http.StatusConflict, Code: code, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
