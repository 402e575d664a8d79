package validators

import "errors"

const (
	minPasswordLen = 5
	// bcrypt ignores everything past 72 bytes
	maxPasswordLen = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 5 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrPasswordEmpty    = errors.New("no password provided")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) < minPasswordLen {
		return ErrPasswordTooShort
	}

	if len(p) > maxPasswordLen {
		return ErrPasswordTooLong
	}

	return nil
}
