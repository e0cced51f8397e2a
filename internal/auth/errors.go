package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Use errors.Is against these to discriminate an *AuthError.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrValidationFailed   = errors.New("validation failed")
	ErrTransport          = errors.New("transport failure")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// FieldError describes one failed field constraint.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// AuthError is the discriminated result of every session and form operation.
type AuthError struct {
	Kind   error
	Reason string
	Fields []FieldError
	Err    error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Fields) > 0 {
		names := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			names[i] = f.Field
		}
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(names, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func InvalidCredentials(reason string) *AuthError {
	return &AuthError{Kind: ErrInvalidCredentials, Reason: reason}
}

func ValidationFailed(fields []FieldError) *AuthError {
	return &AuthError{Kind: ErrValidationFailed, Fields: fields}
}

func Transport(err error) *AuthError {
	return &AuthError{Kind: ErrTransport, Err: err}
}

func Unauthorized(reason string) *AuthError {
	return &AuthError{Kind: ErrUnauthorized, Reason: reason}
}

func PreconditionFailed(reason string) *AuthError {
	return &AuthError{Kind: ErrPreconditionFailed, Reason: reason}
}

// KindOf returns the kind of err, or nil if err is not an *AuthError.
func KindOf(err error) error {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return nil
}
