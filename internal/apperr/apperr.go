// Package apperr defines the errors returned to GraphQL callers. Every error
// carries an HTTP-style status code which is exposed through the GraphQL
// error extensions together with any field errors.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindInvalidInput     Kind = "InvalidInput"
	KindNotAuthenticated Kind = "NotAuthenticated"
	KindNotAuthorized    Kind = "NotAuthorized"
	KindNotFound         Kind = "NotFound"
	KindUnauthorized     Kind = "Unauthorized"
	KindConflict         Kind = "Conflict"
	KindInternal         Kind = "Internal"
)

// FieldError is a single violated input constraint
type FieldError struct {
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Status  int
	Data    []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions is picked up by graphql-go and merged into the error entry
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{
		"status": e.Status,
		"kind":   string(e.Kind),
	}

	if len(e.Data) > 0 {
		ext["data"] = e.Data
	}

	return ext
}

func InvalidInput(data []FieldError) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: "Invalid input.",
		Status:  http.StatusUnprocessableEntity,
		Data:    data,
	}
}

// NotAuthenticated takes the status explicitly because callers disagree on
// 401 vs 403 for the same condition.
func NotAuthenticated(status int) *Error {
	return &Error{
		Kind:    KindNotAuthenticated,
		Message: "Not authenticated.",
		Status:  status,
	}
}

func NotAuthorized() *Error {
	return &Error{
		Kind:    KindNotAuthorized,
		Message: "Not authorized.",
		Status:  http.StatusForbidden,
	}
}

func NotFound(msg string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: msg,
		Status:  http.StatusNotFound,
	}
}

func Unauthorized(msg string) *Error {
	return &Error{
		Kind:    KindUnauthorized,
		Message: msg,
		Status:  http.StatusUnauthorized,
	}
}

// Conflict has no dedicated status and falls back to 500
func Conflict(msg string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: msg,
		Status:  http.StatusInternalServerError,
	}
}

func Internal() *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}
}

// IsKind reports whether err is an *Error of kind k
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}

	return false
}

// Status returns the status code carried by err or 500
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}

	return http.StatusInternalServerError
}
