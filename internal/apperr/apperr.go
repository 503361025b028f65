// Package apperr defines the error taxonomy shared by all Skillboard
// components and its mapping to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error for HTTP mapping and logging.
type Kind int

const (
	// Internal is the default kind for unexpected failures (DB, network).
	Internal Kind = iota
	// BadRequest marks missing or invalid client input.
	BadRequest
	// TokenMissing marks an absent bearer token on an authenticated route.
	TokenMissing
	// TokenInvalid marks a bearer token the identity provider rejected.
	TokenInvalid
	// AccessDenied marks a caller not authorized for the requested tenant.
	AccessDenied
	// NotFound marks a missing entity (tenant, employee, enrollment).
	NotFound
	// Duplicate marks a presence submission repeated within a half-day.
	Duplicate
	// ConfigMissing marks required environment variables absent at first use.
	ConfigMissing
)

// Error carries a kind and a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New returns an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// MissingConfig returns a ConfigMissing error listing the absent variables.
func MissingConfig(vars []string) *Error {
	return &Error{
		Kind:    ConfigMissing,
		Message: "variables d'environnement manquantes: " + strings.Join(vars, ", "),
	}
}

// KindOf extracts the Kind from err. Unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case BadRequest:
		return http.StatusBadRequest
	case TokenMissing, TokenInvalid:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Duplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message shown to HTTP clients. Token errors collapse
// to a generic message; everything else surfaces its message as-is,
// including the stringified cause for Internal errors.
func Detail(err error) string {
	switch KindOf(err) {
	case TokenMissing, TokenInvalid:
		return "Session invalide ou expirée."
	default:
		return err.Error()
	}
}
