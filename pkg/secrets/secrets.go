// Package secrets hashes and verifies account secrets with bcrypt. Each hash
// carries its own salt; verification is constant-time.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	dErrors "govportal/pkg/domain-errors"
)

// MinLength is the shortest secret accepted at registration or reset.
const MinLength = 8

// Hasher hashes secrets at a fixed bcrypt cost.
type Hasher struct {
	cost      int
	dummyHash []byte
}

// NewHasher returns a Hasher; a cost outside bcrypt's range falls back to the default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against on unknown-email logins so both paths spend one bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("govportal-dummy-secret"), cost)
	return &Hasher{cost: cost, dummyHash: dummy}
}

// Generate creates a cryptographically secure random secret, used for
// administrative resets that do not supply one.
func Generate() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckPolicy validates a plaintext secret before hashing.
func CheckPolicy(secret string) error {
	if utf8.RuneCountInString(secret) < MinLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("secret must have at least %d characters", MinLength))
	}
	if len(secret) > 72 {
		return dErrors.New(dErrors.CodeValidation, "secret is too long")
	}
	return nil
}

// Hash creates a bcrypt hash of the provided secret.
func (h *Hasher) Hash(secret string) (string, error) {
	if err := CheckPolicy(secret); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether secret matches hash. A malformed hash is an error,
// a mismatch is not.
func (h *Hasher) Verify(secret, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("could not verify secret: %w", err)
	}
}

// Burn performs one comparison against a fixed hash and discards the result.
func (h *Hasher) Burn(secret string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(secret))
}
