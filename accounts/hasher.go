package accounts

import (
	"fmt"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-registration/pkg/types"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt. The default cost delegates to
// go-auth's HashPassword.
type BcryptHasher struct {
	cost int
	hash func(password string) (string, error)
}

var _ types.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher using cost. A non-positive cost uses
// auth.HashPassword.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		return &BcryptHasher{hash: auth.HashPassword}
	}
	h := &BcryptHasher{cost: cost}
	h.hash = h.generate
	return h
}

// Hash implements types.PasswordHasher.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := h.hash(password)
	if err != nil {
		return "", fmt.Errorf("accounts: hash password: %w", err)
	}
	return hashed, nil
}

// Compare implements types.PasswordHasher.
func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (h *BcryptHasher) generate(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
