package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier compares stored password hashes with login input.
// It is an interface so login tests can skip real bcrypt work.
type PasswordVerifier interface {
	// Compare returns nil when the plaintext password matches the hash.
	Compare(hashedPassword, password string) error
}

// BcryptVerifier implements PasswordVerifier with bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements PasswordVerifier.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
