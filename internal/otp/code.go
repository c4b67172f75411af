package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCode returns a fixed-width numeric code of the given length, drawn
// uniformly from the full digit space so leading zeros are as likely as any
// other digit. Codes are compared as exact strings; "042315" never matches
// "42315".
func GenerateCode(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("otp: code length %d out of range", length)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
