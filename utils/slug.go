package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// IDLength is the length of public paste identifiers.
const IDLength = 8

// idCharset is a URL-safe alphabet: ids never need percent-encoding in paths.
const idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// RandomID generates a random identifier of the given length using
// crypto/rand and the URL-safe charset.
func RandomID(length int) (string, error) {
	if length < 3 || length > 32 {
		length = IDLength
	}
	result := make([]byte, length)
	for i := range result {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		if err != nil {
			return "", err
		}
		result[i] = idCharset[idx.Int64()]
	}
	return string(result), nil
}

// NewID returns a fresh identifier in the production format (8 characters,
// 64-symbol alphabet, ~2^48 possible values).
func NewID() (string, error) {
	return RandomID(IDLength)
}

// IsValidID checks if an identifier has plausible length and contains only
// charset characters. Handlers use it to reject junk path parameters before
// touching the store.
func IsValidID(id string) bool {
	if len(id) < 3 || len(id) > 32 {
		return false
	}
	for _, char := range id {
		if !strings.ContainsRune(idCharset, char) {
			return false
		}
	}
	return true
}
