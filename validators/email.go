// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

var validate = validator.New()

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if err := validate.Var(e, "email"); err != nil {
		return ErrEmailInvalid
	}

	return nil
}
