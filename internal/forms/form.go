// Package forms wraps user-initiated submissions (login, register, job
// application) with declarative validation and exactly-once submission.
package forms

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mansap-dev/mansap/internal/auth"
)

// ErrInFlight is returned when Submit is called while a previous submission
// of the same form has not finished. The remote is not contacted.
var ErrInFlight = errors.New("submission already in flight")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Config describes one form.
type Config[V any] struct {
	// Defaults are the initial values and the values restored by a reset.
	Defaults V
	// Submit performs the remote call and any dependent refresh.
	Submit func(ctx context.Context, values V) error
	// OnSuccess runs after Submit returned nil.
	OnSuccess func()
	// ResetOnSuccess restores Defaults after a successful submission.
	ResetOnSuccess bool
	Logger         zerolog.Logger
}

// Form holds the values of one form instance and serializes its submissions.
type Form[V any] struct {
	cfg Config[V]

	mu       sync.Mutex
	values   V
	inFlight bool
}

func New[V any](cfg Config[V]) *Form[V] {
	return &Form[V]{cfg: cfg, values: cfg.Defaults}
}

// Values returns the current field values.
func (f *Form[V]) Values() V {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// SetValues replaces the field values.
func (f *Form[V]) SetValues(values V) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values
}

// Submitting reports whether a submission is in flight.
func (f *Form[V]) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Submit validates the current values and, if they pass, runs the submit
// function. Validation failures never reach the network. On failure the
// values are kept so the user can retry.
func (f *Form[V]) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrInFlight
	}
	f.inFlight = true
	values := f.values
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
	}()

	if err := Validate(values); err != nil {
		f.cfg.Logger.Debug().Err(err).Msg("Form validation failed")
		return err
	}

	if err := f.cfg.Submit(ctx, values); err != nil {
		f.cfg.Logger.Debug().Err(err).Msg("Form submission failed")
		return err
	}

	if f.cfg.ResetOnSuccess {
		f.mu.Lock()
		f.values = f.cfg.Defaults
		f.mu.Unlock()
	}

	if f.cfg.OnSuccess != nil {
		f.cfg.OnSuccess()
	}
	return nil
}

// Validate checks values against their validate struct tags and returns an
// *auth.AuthError of kind ErrValidationFailed listing every failed field.
func Validate(values any) error {
	err := validate.Struct(values)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &auth.AuthError{Kind: auth.ErrValidationFailed, Err: err}
	}

	fields := make([]auth.FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = auth.FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		}
	}
	return auth.ValidationFailed(fields)
}

// FieldErrors extracts the failed fields of a validation error.
func FieldErrors(err error) []auth.FieldError {
	var ae *auth.AuthError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}
