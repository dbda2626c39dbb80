package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Opaque refresh token values are 64 chars from an alphanumeric alphabet.
	// Predictability here breaks the whole session model, so values are drawn
	// from crypto/rand only
	refreshTokenLen      = 64
	refreshTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func generateTokenValue() (string, error) {
	b := make([]byte, refreshTokenLen)
	alphabetLen := big.NewInt(int64(len(refreshTokenAlphabet)))

	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("error while generating refresh token. Err: %w", err)
		}
		b[i] = refreshTokenAlphabet[n.Int64()]
	}

	return string(b), nil
}
