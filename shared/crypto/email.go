package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrInvalidKey   = errors.New("hash key must be 32 bytes")
	ErrInvalidEmail = errors.New("invalid email format")
)

// EmailHasher turns email addresses into irreversible dedup keys.
// The plaintext address is never stored.
type EmailHasher struct {
	key []byte
}

// NewEmailHasher creates a hasher keyed with a base64 encoded 32 byte key.
// An empty key yields an unkeyed hasher, which is only suitable for local runs.
func NewEmailHasher(keyBase64 string) (*EmailHasher, error) {
	if keyBase64 == "" {
		return &EmailHasher{}, nil
	}
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hash key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &EmailHasher{key: key}, nil
}

// Normalize lowercases and trims an address. Hashes are computed over the
// normalized form so "Ann@X.com " and "ann@x.com" collide.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Hash returns the keyed BLAKE2b-256 digest of the normalized email.
func (h *EmailHasher) Hash(email string) ([]byte, error) {
	email = Normalize(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	d, err := blake2b.New256(h.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash: %w", err)
	}
	d.Write([]byte(email))
	return d.Sum(nil), nil
}

// HashSecret returns the unkeyed BLAKE2b-256 digest of a secret such as an API key.
func HashSecret(secret string) []byte {
	sum := blake2b.Sum256([]byte(secret))
	return sum[:]
}

// GenerateKey generates a random 32-byte key and returns it as base64
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
