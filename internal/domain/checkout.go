package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const DefaultCheckoutCodeLength = 6

// GenerateCheckoutCode returns a random numeric code of the given length
func GenerateCheckoutCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCheckoutCodeLength
	}

	code := make([]byte, length)
	ten := big.NewInt(10)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate checkout code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
