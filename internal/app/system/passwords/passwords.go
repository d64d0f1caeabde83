// Package passwords hashes and verifies teacher passwords.
//
// New hashes are argon2id in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash), which is also what existing
// seeded records use. bcrypt hashes ($2a$/$2b$/$2y$) are accepted on verify.
package passwords

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Params are the argon2id cost parameters used by Hash.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams match the argon2 reference defaults used for seeded accounts.
var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    3,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Upper bounds on stored cost parameters. A record asking for more is
// treated as malformed.
const (
	maxMemory = 1 << 20 // KiB
	maxTime   = 16
	maxKeyLen = 256
)

var (
	ErrEmptyPassword = errors.New("password is empty")
	errMalformedHash = errors.New("malformed argon2 hash")
)

// Hash returns an argon2id PHC string for password using DefaultParams.
func Hash(password string) (string, error) {
	return HashWithParams(password, DefaultParams)
}

// HashWithParams returns an argon2id PHC string for password.
func HashWithParams(password string, p Params) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether candidate matches the stored hash. Unknown or
// malformed hashes never match.
func Verify(stored, candidate string) bool {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"), strings.HasPrefix(stored, "$argon2i$"):
		ok, err := verifyArgon2(stored, candidate)
		return err == nil && ok
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	default:
		return false
	}
}

func verifyArgon2(stored, candidate string) (bool, error) {
	// "", variant, v=19, m=..,t=..,p=.., salt, key
	parts := strings.Split(stored, "$")
	if len(parts) != 6 {
		return false, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, errMalformedHash
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, errMalformedHash
	}
	if memory == 0 || memory > maxMemory || time == 0 || time > maxTime || threads == 0 {
		return false, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxKeyLen {
		return false, errMalformedHash
	}

	var got []byte
	if parts[1] == "argon2id" {
		got = argon2.IDKey([]byte(candidate), salt, time, memory, threads, uint32(len(want)))
	} else {
		got = argon2.Key([]byte(candidate), salt, time, memory, threads, uint32(len(want)))
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
