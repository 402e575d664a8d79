// Package security contains everything related to the security of user data
package security

import (
	"fmt"
	"strings"
)

// PasswordHasher hashes passwords one way. Verify never reverses a hash.
type PasswordHasher interface {
	Hash(p string) (string, error)
	Verify(p, encoded string) (bool, error)
}

// Hasher writes new hashes with the configured algorithm and verifies
// hashes of any supported algorithm, so switching algorithms doesn't lock
// out existing users.
type Hasher struct {
	write  PasswordHasher
	bcrypt *BcryptHash
	argon  *Argon2id
}

// NewHasher returns a Hasher writing algo hashes. algo is "bcrypt" or
// "argon2id".
func NewHasher(algo string, bcryptCost int) (*Hasher, error) {
	h := &Hasher{
		bcrypt: NewBcrypt(bcryptCost),
		argon:  NewArgon2id(),
	}

	switch algo {
	case "", "bcrypt":
		h.write = h.bcrypt
	case "argon2id":
		h.write = h.argon
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algo)
	}

	return h, nil
}

func (h *Hasher) Hash(p string) (string, error) {
	return h.write.Hash(p)
}

func (h *Hasher) Verify(p, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argonPrefix):
		return h.argon.Verify(p, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return h.bcrypt.Verify(p, encoded)
	}

	return false, fmt.Errorf("unknown hash format")
}
