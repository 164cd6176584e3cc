package auth

import (
	"errors"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces salted, self-describing password hashes and checks
// candidates against them in constant time.
//
// New hashes are argon2id in PHC string format. Bcrypt hashes (imported from
// older deployments) still verify, and NeedsRehash reports them so callers
// can upgrade after a successful login.
type PasswordHasher struct {
	config argon2.Config
}

// NewPasswordHasher returns a hasher with the library's recommended argon2id
// parameters.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{config: argon2.DefaultConfig()}
}

// NewPasswordHasherWithConfig allows tuning argon2 cost, mostly for tests.
func NewPasswordHasherWithConfig(config argon2.Config) *PasswordHasher {
	return &PasswordHasher{config: config}
}

// Hash returns the encoded hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Verify reports whether password matches encoded. A malformed or unknown
// hash format is an error; a mismatch is not.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	return argon2.VerifyEncoded([]byte(password), []byte(encoded))
}

// NeedsRehash reports whether encoded uses a legacy scheme.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	return isBcrypt(encoded)
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
