package validators

import (
	"bitwise74/blog-api/internal/apperr"
	"errors"
	"strings"
)

// Registration returns every violated constraint of a sign up request
func Registration(email, password string) []apperr.FieldError {
	var errs []apperr.FieldError

	if err := EmailValidator(email); err != nil {
		errs = append(errs, apperr.FieldError{Message: "Email is invalid"})
	}

	if err := PasswordValidator(password); err != nil {
		msg := "Password is too short"
		if errors.Is(err, ErrPasswordTooLong) {
			msg = "Password is too long"
		}

		errs = append(errs, apperr.FieldError{Message: msg})
	}

	return errs
}

// PostInput is used for both creating and updating posts
func PostInput(title, content string) []apperr.FieldError {
	var errs []apperr.FieldError

	if strings.TrimSpace(title) == "" {
		errs = append(errs, apperr.FieldError{Message: "Title is invalid."})
	}

	if strings.TrimSpace(content) == "" {
		errs = append(errs, apperr.FieldError{Message: "Content is invalid."})
	}

	return errs
}

// ImageURL only applies when a new image reference was supplied
func ImageURL(ref *string) []apperr.FieldError {
	if ref != nil && strings.TrimSpace(*ref) == "" {
		return []apperr.FieldError{{Message: "Image is invalid."}}
	}

	return nil
}

func Page(page int) []apperr.FieldError {
	if page < 1 {
		return []apperr.FieldError{{Message: "Page must be 1 or greater"}}
	}

	return nil
}
