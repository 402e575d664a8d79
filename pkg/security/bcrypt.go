package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

type BcryptHash struct {
	Cost int
}

func NewBcrypt(cost int) *BcryptHash {
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	return &BcryptHash{Cost: cost}
}

func (b *BcryptHash) Hash(p string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(p), b.Cost)
	if err != nil {
		return "", err
	}

	return string(h), nil
}

func (b *BcryptHash) Verify(p, e string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, err
}
