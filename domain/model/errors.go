package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies publish failures. The worker retries only the
// retryable kinds; everything else fails the job immediately.
type ErrorKind string

const (
	ErrKindConfiguration     ErrorKind = "configuration"
	ErrKindValidation        ErrorKind = "validation"
	ErrKindAuthentication    ErrorKind = "authentication"
	ErrKindReauthorization   ErrorKind = "reauthorization_required"
	ErrKindRateLimit         ErrorKind = "rate_limit"
	ErrKindUpstreamAPI       ErrorKind = "upstream_api"
	ErrKindTransientNetwork  ErrorKind = "transient_network"
	ErrKindTimeout           ErrorKind = "timeout"
)

// PlatformError carries the failure taxonomy across the adapter, queue and
// client layers.
type PlatformError struct {
	Kind     ErrorKind
	Platform Platform
	Message  string
	Err      error
}

func (e *PlatformError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Platform != "" {
		return fmt.Sprintf("%s: %s: %s", e.Platform, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Retryable reports whether the failure should consume a retry attempt
// instead of failing the job outright.
func (e *PlatformError) Retryable() bool {
	return e.Kind == ErrKindRateLimit || e.Kind == ErrKindTransientNetwork
}

func newErr(kind ErrorKind, platform Platform, format string, args ...interface{}) *PlatformError {
	return &PlatformError{Kind: kind, Platform: platform, Message: fmt.Sprintf(format, args...)}
}

func NewConfigurationError(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindConfiguration, p, format, args...)
}

func NewValidationError(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindValidation, p, format, args...)
}

func NewAuthenticationError(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindAuthentication, p, format, args...)
}

func NewReauthorizationRequired(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindReauthorization, p, format, args...)
}

func NewRateLimitError(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindRateLimit, p, format, args...)
}

func NewUpstreamAPIError(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindUpstreamAPI, p, format, args...)
}

func NewTransientNetworkError(p Platform, err error, format string, args ...interface{}) *PlatformError {
	e := newErr(ErrKindTransientNetwork, p, format, args...)
	e.Err = err
	return e
}

func NewTimeoutError(p Platform, format string, args ...interface{}) *PlatformError {
	return newErr(ErrKindTimeout, p, format, args...)
}

// IsRetryable reports whether err (or anything it wraps) is a retryable
// platform error. Unknown errors are terminal.
func IsRetryable(err error) bool {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// KindOf extracts the taxonomy kind, or ErrKindUpstreamAPI for untyped errors.
func KindOf(err error) ErrorKind {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrKindUpstreamAPI
}
