// Package random produces secrets for default configuration values.
package random

import (
	"crypto/rand"
	"encoding/hex"
)

// Bytes generates n random bytes. It panics if the system source of randomness fails.
func Bytes(n int) []byte {
	bytes := make([]byte, n)

	_, err := rand.Read(bytes)
	if err != nil {
		panic(err)
	}

	return bytes
}

// String returns n random bytes hex encoded, so the result is 2*n characters long.
func String(n int) string {
	return hex.EncodeToString(Bytes(n))
}
