package provider

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable error category every provider-facing error
// carries alongside its human message.
type Kind string

const (
	KindLoginFailed          Kind = "LoginFailed"
	KindMediaNotFound        Kind = "MediaNotFoundError"
	KindRateLimited          Kind = "RateLimited"
	KindProviderUnavailable  Kind = "ProviderUnavailable"
	KindUnsupportedFeature   Kind = "UnsupportedFeatureException"
	KindInvalidData          Kind = "InvalidDataError"
	KindIO                   Kind = "IOError"
	KindUnsupportedOperation Kind = "UnsupportedOperation"
)

// Error is the typed error every provider operation and controller
// boundary returns, carrying both a Kind for programmatic dispatch and a
// human message.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err carries the given Kind, unwrapping through
// wrapped errors.
func Is(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

func newErr(kind Kind, providerID, msg string, cause error) *Error {
	return &Error{Kind: kind, Provider: providerID, Message: msg, Err: cause}
}

func NewLoginFailed(providerID, msg string, cause error) *Error {
	return newErr(KindLoginFailed, providerID, msg, cause)
}

func NewMediaNotFound(providerID, msg string) *Error {
	return newErr(KindMediaNotFound, providerID, msg, nil)
}

func NewRateLimited(providerID, msg string, cause error) *Error {
	return newErr(KindRateLimited, providerID, msg, cause)
}

func NewProviderUnavailable(providerID, msg string, cause error) *Error {
	return newErr(KindProviderUnavailable, providerID, msg, cause)
}

func NewUnsupportedFeature(providerID string, cap Capability) *Error {
	return newErr(KindUnsupportedFeature, providerID, fmt.Sprintf("capability %s not supported", cap), nil)
}

func NewInvalidData(providerID, field, msg string) *Error {
	return newErr(KindInvalidData, providerID, fmt.Sprintf("field %q: %s", field, msg), nil)
}

func NewIOError(providerID, msg string, cause error) *Error {
	return newErr(KindIO, providerID, msg, cause)
}

func NewUnsupportedOperation(providerID, msg string) *Error {
	return newErr(KindUnsupportedOperation, providerID, msg, nil)
}
