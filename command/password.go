package command

import (
	"crypto/rand"
	"math/big"
)

// DefaultPasswordLength is the length of generated initial passwords.
const DefaultPasswordLength = 5

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomPasswordGenerator draws alphanumeric passwords from crypto/rand.
type RandomPasswordGenerator struct {
	Length int
}

// Generate implements types.PasswordGenerator.
func (g RandomPasswordGenerator) Generate() (string, error) {
	length := g.Length
	if length == 0 {
		length = DefaultPasswordLength
	}
	if length < 0 {
		return "", ErrPasswordLength
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
