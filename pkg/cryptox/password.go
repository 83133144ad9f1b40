package cryptox

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

var (
	// ErrPasswordMismatch is returned when a password does not match its hash.
	ErrPasswordMismatch = errors.New("password does not match")
	// ErrInvalidHash is returned when a stored hash cannot be parsed.
	ErrInvalidHash = errors.New("invalid hash format")
)

// Upper bounds on parameters read from a stored hash. A corrupt or hostile
// value beyond these is rejected instead of being handed to argon2.
const (
	MaxMemory      = 1 << 21 // KiB (2 GiB)
	MaxIterations  = 64
	maxHashSegment = 128 // bytes, salt or sum
)

// phcHash is a decoded $argon2id$v=19$m=X,t=Y,p=Z$salt$hash string.
type phcHash struct {
	params Params
	salt   []byte
	sum    []byte
}

// HashPassword generates a PHC-format Argon2id hash string including salt and
// the currently configured parameters.
func HashPassword(password string) (string, error) {
	pep, err := loadPepper()
	if err != nil {
		return "", err
	}

	p := CurrentParams()
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password+pep), salt, p.Iterations, p.Memory, p.Parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// VerifyPassword compares a plaintext password against a stored hash.
// Argon2id PHC strings are checked with the pepper; bcrypt hashes carried
// over from the previous dashboard database are checked without it.
// Any parse failure is reported as an error, never as a match.
func VerifyPassword(password, encodedHash string) error {
	if isBcrypt(encodedHash) {
		if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrPasswordMismatch
			}
			return fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		return nil
	}

	h, err := parsePHC(encodedHash)
	if err != nil {
		return err
	}

	pep, err := loadPepper()
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+pep),
		h.salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		uint32(len(h.sum)), // #nosec G115 - bounded by the decoded hash length
	)
	if subtle.ConstantTimeCompare(computed, h.sum) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// CheckPassword reports whether password matches encodedHash. Malformed
// hashes never match.
func CheckPassword(password, encodedHash string) bool {
	return VerifyPassword(password, encodedHash) == nil
}

// NeedsRehash reports whether encodedHash was produced by a legacy algorithm
// or with parameters other than the current ones.
func NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}
	h, err := parsePHC(encodedHash)
	if err != nil {
		return true
	}
	return h.params != CurrentParams() || len(h.sum) != keyLength
}

func isBcrypt(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") ||
		strings.HasPrefix(encodedHash, "$2b$") ||
		strings.HasPrefix(encodedHash, "$2y$")
}

func parsePHC(encodedHash string) (phcHash, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return phcHash{}, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[0] != "" || parts[1] != "argon2id" {
		return phcHash{}, fmt.Errorf("%w: not argon2id", ErrInvalidHash)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return phcHash{}, fmt.Errorf("%w: wrong version", ErrInvalidHash)
	}

	var h phcHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return phcHash{}, fmt.Errorf("%w: failed to parse parameters: %v", ErrInvalidHash, err)
	}
	if h.params.Memory == 0 || h.params.Iterations == 0 || h.params.Parallelism == 0 {
		return phcHash{}, fmt.Errorf("%w: zero parameter", ErrInvalidHash)
	}
	if h.params.Memory > MaxMemory || h.params.Iterations > MaxIterations {
		return phcHash{}, fmt.Errorf("%w: parameters out of range", ErrInvalidHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phcHash{}, fmt.Errorf("%w: failed to decode salt: %v", ErrInvalidHash, err)
	}
	if h.sum, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return phcHash{}, fmt.Errorf("%w: failed to decode hash: %v", ErrInvalidHash, err)
	}
	if len(h.salt) == 0 || len(h.sum) == 0 {
		return phcHash{}, fmt.Errorf("%w: empty salt or hash", ErrInvalidHash)
	}
	if len(h.salt) > maxHashSegment || len(h.sum) > maxHashSegment {
		return phcHash{}, fmt.Errorf("%w: oversized salt or hash", ErrInvalidHash)
	}
	return h, nil
}
