// Package password hashes and verifies user passwords with scrypt.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	separator     = "."
	minSaltLength = 8
	minKeyLength  = 16
)

// Config holds the scrypt cost parameters.
type Config struct {
	N          int // CPU/memory cost, power of two
	R          int // block size
	P          int // parallelization
	SaltLength int
	KeyLength  int
}

// DefaultConfig takes roughly 50-100ms per hash on current server hardware.
func DefaultConfig() Config {
	return Config{
		N:          1 << 15,
		R:          8,
		P:          1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// Scrypt hashes passwords into "<hex salt>.<hex key>".
// It is safe for concurrent use.
type Scrypt struct {
	cfg  Config
	rand io.Reader
}

// NewScrypt validates cfg and returns a hasher.
func NewScrypt(cfg Config) (*Scrypt, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Scrypt{cfg: cfg, rand: rand.Reader}, nil
}

func validateConfig(cfg Config) error {
	if cfg.N <= 1 || cfg.N&(cfg.N-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of two greater than 1, got %d", cfg.N)
	}
	if cfg.R <= 0 || cfg.P <= 0 {
		return errors.New("scrypt r and p must be positive")
	}
	if cfg.SaltLength < minSaltLength {
		return fmt.Errorf("salt length must be at least %d bytes", minSaltLength)
	}
	if cfg.KeyLength < minKeyLength {
		return fmt.Errorf("key length must be at least %d bytes", minKeyLength)
	}
	return nil
}

// Hash derives a key from plaintext with a fresh random salt.
func (s *Scrypt) Hash(plaintext string) (string, error) {
	salt := make([]byte, s.cfg.SaltLength)
	if _, err := io.ReadFull(s.rand, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(plaintext), salt, s.cfg.N, s.cfg.R, s.cfg.P, s.cfg.KeyLength)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return hex.EncodeToString(salt) + separator + hex.EncodeToString(key), nil
}

// Verify reports whether plaintext matches encoded.
// Malformed encodings yield false rather than an error.
func (s *Scrypt) Verify(encoded, plaintext string) bool {
	saltHex, keyHex, ok := strings.Cut(encoded, separator)
	if !ok || saltHex == "" || keyHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) < minSaltLength {
		return false
	}
	stored, err := hex.DecodeString(keyHex)
	if err != nil || len(stored) < minKeyLength {
		return false
	}

	computed, err := scrypt.Key([]byte(plaintext), salt, s.cfg.N, s.cfg.R, s.cfg.P, len(stored))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computed, stored) == 1
}
