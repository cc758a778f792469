// Package auth holds the credential and token primitives: bcrypt password
// hashing and HS256 bearer tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword produces a salted one-way hash of the plaintext. bcrypt
// generates a fresh salt per call.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash. Malformed
// hashes count as a mismatch, never an error.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
