// Package apperrors defines the error taxonomy shared by services, repositories
// and HTTP handlers.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrValidation     = errors.New("validation_error")
	ErrAuthentication = errors.New("authentication_error")
	ErrNotFound       = errors.New("not_found")
	ErrConflict       = errors.New("conflict")
	ErrDuplicateItem  = errors.New("duplicate_item")
	ErrProcessing     = errors.New("processing_error")
)

// Error carries a human readable message, the taxonomy sentinel it belongs to
// and an optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Authentication(msg string) error {
	return &Error{Kind: ErrAuthentication, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Conflict(msg string, cause error) error {
	return &Error{Kind: ErrConflict, Message: msg, Cause: cause}
}

func DuplicateItem(msg string) error {
	return &Error{Kind: ErrDuplicateItem, Message: msg}
}

func Processing(msg string, cause error) error {
	return &Error{Kind: ErrProcessing, Message: msg, Cause: cause}
}

// httpStatuser is implemented by errors that know their own HTTP status,
// e.g. upstream provider failures.
type httpStatuser interface {
	HTTPStatus() int
}

// HTTPStatus maps an error to the response status code. ErrProcessing wins
// over any kind carried by its cause so a failed handler always answers 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrProcessing):
		return http.StatusInternalServerError
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateItem):
		return http.StatusConflict
	}
	var hs httpStatuser
	if errors.As(err, &hs) {
		if s := hs.HTTPStatus(); s >= 400 && s <= 599 {
			return s
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Code returns the machine readable error code used in JSON responses.
func Code(err error) string {
	for _, kind := range []error{ErrProcessing, ErrValidation, ErrAuthentication, ErrNotFound, ErrDuplicateItem, ErrConflict} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	var hs httpStatuser
	if errors.As(err, &hs) {
		return "provider_error"
	}
	return "internal_server_error"
}
