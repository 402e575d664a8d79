package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argonPrefix = "$argon2id$"

var (
	ErrMalformedHash   = errors.New("malformed argon2id hash")
	ErrUnsupportedHash = errors.New("unsupported argon2 version")
)

var b64 = base64.RawStdEncoding

// Argon2idParams are the cost settings written into every new hash
type Argon2idParams struct {
	MemoryKiB uint32
	Passes    uint32
	Threads   uint8
	SaltBytes uint32
	KeyBytes  uint32
}

// Argon2id hashes passwords into the PHC string format
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<key>.
type Argon2id struct {
	Params Argon2idParams
}

func NewArgon2id() *Argon2id {
	return &Argon2id{Params: Argon2idParams{
		MemoryKiB: 64 * 1024,
		Passes:    3,
		Threads:   2,
		SaltBytes: 16,
		KeyBytes:  32,
	}}
}

func (a *Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, a.Params.SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt, %w", err)
	}

	p := a.Params
	key := argon2.IDKey([]byte(password), salt, p.Passes, p.MemoryKiB, p.Threads, p.KeyBytes)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, p.MemoryKiB, p.Passes, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the settings stored in encoded, so hashes
// written under older params keep working.
func (a *Argon2id) Verify(password, encoded string) (bool, error) {
	h, err := parseArgon2id(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(password), h.salt, h.params.Passes, h.params.MemoryKiB, h.params.Threads, uint32(len(h.key)))

	return subtle.ConstantTimeCompare(h.key, key) == 1, nil
}

type argon2idHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func parseArgon2id(encoded string) (*argon2idHash, error) {
	rest, ok := strings.CutPrefix(encoded, argonPrefix)
	if !ok {
		return nil, ErrMalformedHash
	}

	// v=19, m=..,t=..,p=.., salt, key
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, ErrUnsupportedHash
	}

	h := &argon2idHash{}

	_, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &h.params.MemoryKiB, &h.params.Passes, &h.params.Threads)
	if err != nil {
		return nil, ErrMalformedHash
	}

	if h.salt, err = b64.DecodeString(fields[2]); err != nil {
		return nil, ErrMalformedHash
	}

	if h.key, err = b64.DecodeString(fields[3]); err != nil || len(h.key) == 0 {
		return nil, ErrMalformedHash
	}

	return h, nil
}
