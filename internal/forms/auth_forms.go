package forms

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrRegistrationRejected is returned when the API did not report success
// for a registration.
var ErrRegistrationRejected = errors.New("registration was not accepted")

// Session is the part of the session store the auth forms drive.
type Session interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, name, email, password string) (bool, error)
}

type LoginValues struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterValues struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// NewLoginForm returns a form that logs in through session. onSuccess runs
// once the token is stored and the profile loaded.
func NewLoginForm(session Session, onSuccess func(), logger zerolog.Logger) *Form[LoginValues] {
	return New(Config[LoginValues]{
		Submit: func(ctx context.Context, v LoginValues) error {
			return session.Login(ctx, v.Email, v.Password)
		},
		OnSuccess: onSuccess,
		Logger:    logger,
	})
}

// NewRegisterForm returns a form that registers through session and resets
// its fields once the API accepts the account.
func NewRegisterForm(session Session, onSuccess func(), logger zerolog.Logger) *Form[RegisterValues] {
	return New(Config[RegisterValues]{
		Submit: func(ctx context.Context, v RegisterValues) error {
			ok, err := session.Register(ctx, v.Name, v.Email, v.Password)
			if err != nil {
				return err
			}
			if !ok {
				return ErrRegistrationRejected
			}
			return nil
		},
		OnSuccess:      onSuccess,
		ResetOnSuccess: true,
		Logger:         logger,
	})
}
