// Package errors defines the error envelope rendered by every HTTP handler.
//
// Handlers return *AppError values carrying a stable, machine-readable code.
// Anything else is classified by the sentinel it wraps, and unknown causes
// fall through to a generic 500 whose text never reaches the client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrRateLimited    = errors.New("rate limited")
	ErrServiceUnavail = errors.New("service unavailable")
)

// class is the rendering used for a bare sentinel.
type class struct {
	sentinel error
	status   int
	code     string
	message  string
}

var classes = []class{
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found"},
	{ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "Resource already exists"},
	{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", "Invalid input"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Forbidden"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests"},
	{ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service unavailable"},
}

var internal = class{nil, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error"}

// Detail describes a single offending field of a rejected request.
type Detail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// AppError is an error with a client-facing code, message and status.
// Err is kept for errors.Is/As and logging only.
type AppError struct {
	Code    string
	Message string
	Details []Detail
	Status  int
	Err     error
}

// Error renders the code and message, followed by the cause unless the cause
// is only the sentinel the code already implies.
func (e *AppError) Error() string {
	if e.Err == nil || isSentinel(e.Err) {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func isSentinel(err error) bool {
	for _, c := range classes {
		if err == c.sentinel {
			return true
		}
	}
	return false
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another *AppError by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New builds an AppError. sentinel may be nil.
func New(code, message string, status int, sentinel error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports a missing resource as <RESOURCE>_NOT_FOUND.
func NotFound(resource string) *AppError {
	return New(strings.ToUpper(resource)+"_NOT_FOUND", titleCase(resource)+" not found",
		http.StatusNotFound, ErrNotFound)
}

// AlreadyExists reports a uniqueness conflict as <FIELD>_ALREADY_EXISTS.
func AlreadyExists(field string) *AppError {
	return New(strings.ToUpper(field)+"_ALREADY_EXISTS", "The "+field+" is already registered",
		http.StatusConflict, ErrAlreadyExists)
}

func InvalidInput(code, message string, details ...Detail) *AppError {
	e := New(code, message, http.StatusBadRequest, ErrInvalidInput)
	e.Details = details
	return e
}

func Unauthorized(code, message string) *AppError {
	return New(code, message, http.StatusUnauthorized, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return New("FORBIDDEN", message, http.StatusForbidden, ErrForbidden)
}

func RateLimited(code, message string) *AppError {
	return New(code, message, http.StatusTooManyRequests, ErrRateLimited)
}

// Internal hides err behind the generic 500 rendering.
func Internal(err error) *AppError {
	return New(internal.code, internal.message, internal.status, err)
}

// InternalWithCode is a 500 that names the failed operation.
func InternalWithCode(code, message string, err error) *AppError {
	return New(code, message, http.StatusInternalServerError, err)
}

// Classify returns how err is rendered: its own fields for an *AppError,
// the sentinel's class for a wrapped sentinel, and a generic 500 otherwise.
func Classify(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			return c.status, c.code, c.message
		}
	}
	return internal.status, internal.code, internal.message
}

// HTTPStatus returns the status Classify would render for err.
func HTTPStatus(err error) int {
	status, _, _ := Classify(err)
	return status
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
