package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("access forbidden")
	ErrBadCredentials   = errors.New("invalid username or password")
	ErrTermsRequired    = errors.New("terms and conditions must be accepted")
	ErrLicenseExpired   = errors.New("license expired")
	ErrLoginFailed      = errors.New("login failed")

	ErrDemoTermsPending  = errors.New("demo terms not accepted")
	ErrSessionChanged    = errors.New("session changed while request was in flight")
	ErrNotBlocking       = errors.New("no terms acceptance pending")
	ErrCredentialExpired = errors.New("credential expired")

	ErrWeakPassword     = errors.New("password does not meet strength requirements")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrInvalidInput     = errors.New("invalid input")

	ErrBackend = errors.New("backend request failed")
)

// LoginReason classifies a rejected login.
type LoginReason string

const (
	LoginBadCredentials LoginReason = "bad-credentials"
	LoginTermsRequired  LoginReason = "terms-required"
	LoginLicenseExpired LoginReason = "license-expired"
	LoginUnknown        LoginReason = "unknown"
)

// LoginError is returned when the backend rejects a login.
type LoginError struct {
	Reason LoginReason
	Detail string
}

func (e *LoginError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("login rejected: %s", e.Reason)
	}
	return fmt.Sprintf("login rejected: %s: %s", e.Reason, e.Detail)
}

// Unwrap maps the reason onto its sentinel so callers can use errors.Is.
func (e *LoginError) Unwrap() error {
	switch e.Reason {
	case LoginBadCredentials:
		return ErrBadCredentials
	case LoginTermsRequired:
		return ErrTermsRequired
	case LoginLicenseExpired:
		return ErrLicenseExpired
	default:
		return ErrLoginFailed
	}
}

// DecodeError reports a persisted entry that could not be parsed.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// BackendError is a non-2xx response from the REST backend.
type BackendError struct {
	Op     string
	Status int
	Code   string
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Detail)
}

func (e *BackendError) Unwrap() error { return ErrBackend }
