package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateShareToken returns an opaque URL-safe token with 256 bits of
// entropy. Unguessable by construction; uniqueness is still enforced by the
// storage layer's index.
func GenerateShareToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// GenerateSlug returns a securely generated base62 string of length n for
// shortlink slugs. Derived independently of the token it wraps, so the slug
// leaks nothing about the raw token.
func GenerateSlug(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(base62)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = base62[num.Int64()]
	}
	return string(out), nil
}
