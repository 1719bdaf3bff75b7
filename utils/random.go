package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// RefCodePrefix is the prefix of every favor reference code.
const RefCodePrefix = "FAV"

func GenerateCode(n int) (string, error) {
	// Make a slice of n random bytes.
	byt := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	// Return the hexadecimal string.
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateRefCode produces a human-readable favor reference, e.g.
// FAV-3F9A1C0D. Uniqueness is enforced by the store's unique index.
func GenerateRefCode() (string, error) {
	code, err := GenerateCode(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", RefCodePrefix, code), nil
}
