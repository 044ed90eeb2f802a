package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows how it should be rendered to clients.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// WithError attaches the cause. It is logged, never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithField names the request parameter the error is about.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

func newAppError(status int, code, format string, a ...interface{}) *AppError {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	return &AppError{Code: code, Message: msg, Status: status}
}

func NotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, "ERR_NOT_FOUND", message)
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return newAppError(http.StatusBadRequest, "ERR_BAD_REQUEST", format, a...)
}

// UnavailableError signals a backend (store, provider) that cannot serve right now.
func UnavailableError(message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, "ERR_UNAVAILABLE", message)
}
