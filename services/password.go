package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Constants for Argon2 parameters
const (
	memory      = 64 * 1024
	iterations  = 3
	parallelism = 2
	keyLength   = 32
)

var ErrInvalidHashFormat = errors.New("invalid stored password format")

// HashPassword returns an argon2id hash encoded as "salt$hash".
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}

	// Generate a random salt
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.New("failed to generate salt")
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return encodedSalt + "$" + encodedHash, nil
}

// VerifyPassword checks providedPassword against storedPassword. Besides the
// argon2 format it accepts the bare hex SHA-256 digests of imported accounts.
func VerifyPassword(storedPassword, providedPassword string) (bool, error) {
	if IsLegacyHash(storedPassword) {
		computed := LegacyHash(providedPassword)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(storedPassword))) == 1, nil
	}

	parts := strings.Split(storedPassword, "$")
	if len(parts) != 2 {
		return false, ErrInvalidHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, err
	}

	storedHash, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, err
	}

	computedHash := argon2.IDKey([]byte(providedPassword), salt, iterations, memory, parallelism, keyLength)

	return subtle.ConstantTimeCompare(computedHash, storedHash) == 1, nil
}

// ComparePasswords compares a stored password hash with a plain-text password
// Returns true if they match, false otherwise
func ComparePasswords(storedHash, plainPassword string) bool {
	match, err := VerifyPassword(storedHash, plainPassword)
	if err != nil {
		return false
	}
	return match
}

// IsLegacyHash reports whether stored is a 64 character hex SHA-256 digest.
func IsLegacyHash(stored string) bool {
	if len(stored) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}

// LegacyHash is the SHA-256 hex digest format used by imported accounts.
func LegacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
