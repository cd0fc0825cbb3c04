package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidToken covers every credential failure the caller may not
// distinguish: bad signature, expired, wrong token type, denylisted, or
// a missing/inactive subject.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenRevoked is returned when revoking a token that is already on
// the denylist. A client error, not a fatal one.
var ErrTokenRevoked = errors.New("token already revoked")

// ErrInvalidCredentials is returned for a failed username/password login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError aggregates field-scoped messages for malformed or
// inconsistent input. The request boundary renders Fields verbatim so a
// client can attach every message to the offending field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field string, messages ...string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: messages}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
