package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrBusinessRule    = errors.New("business rule")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrInvalidOTP         = fmt.Errorf("%w: Invalid OTP", ErrBusinessRule)
	ErrSessionExpired     = fmt.Errorf("%w: session expired, please start again", ErrBusinessRule)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
)

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Message returns the text after the taxonomy prefix, the part that is safe to show a client.
func Message(err error) string {
	msg := err.Error()
	for _, base := range []error{ErrBusinessRule, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict, ErrValidation} {
		prefix := base.Error() + ": "
		if i := strings.LastIndex(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
