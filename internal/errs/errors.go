// Package errs provides the unified error type used across all of s3gate.
//
// Every subsystem (filestore drivers, gateway, auth, server) wraps its native
// errors into *errs.Error before returning them to callers. Callers use the
// Is* predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindNotFound, "object not found", minioErr)
//
//	// In a handler, check the error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// The object store driver maps every backend failure to one of these kinds,
// giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown        ErrKind = iota
	ErrKindConfiguration          // malformed or missing configuration field
	ErrKindConnectivity           // connectivity probe failed, backend unreachable
	ErrKindNotInitialized         // no active backend connection yet
	ErrKindNotFound               // no object, no bucket
	ErrKindAuthentication         // bad credentials, invalid or expired token
	ErrKindInvalidInput           // bad arguments from the caller
	ErrKindGateway                // any other backend failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConfiguration:
		return "configuration_error"
	case ErrKindConnectivity:
		return "connectivity_error"
	case ErrKindNotInitialized:
		return "not_initialized"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindAuthentication:
		return "authentication_error"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindGateway:
		return "gateway_error"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all s3gate subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Field   string // offending field, set for configuration and input errors
	Cause   error  // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Configuration creates a configuration error naming the offending field.
func Configuration(field, msg string) *Error {
	return &Error{Kind: ErrKindConfiguration, Field: field, Message: msg}
}

// InvalidInput creates an input error naming the offending argument.
func InvalidInput(field, msg string) *Error {
	return &Error{Kind: ErrKindInvalidInput, Field: field, Message: msg}
}

// --- Predicates ---

// IsConfiguration reports whether err is a configuration validation failure.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsConnectivity reports whether err is a failed connectivity probe.
func IsConnectivity(err error) bool {
	return KindOf(err) == ErrKindConnectivity
}

// IsNotInitialized reports whether err was raised because no backend
// connection is active.
func IsNotInitialized(err error) bool {
	return KindOf(err) == ErrKindNotInitialized
}

// IsNotFound reports whether err represents a missing object or bucket.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsAuthentication reports whether err is a credential or token failure.
func IsAuthentication(err error) bool {
	return KindOf(err) == ErrKindAuthentication
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsGateway reports whether err is a generic backend failure.
func IsGateway(err error) bool {
	return KindOf(err) == ErrKindGateway
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// FieldOf returns the offending field of the outermost *Error in the chain.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
