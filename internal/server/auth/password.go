// Package auth covers credential hashing and the signed session cookie
// tokens used by the web layer.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of password at the given cost.
// Pass bcrypt.DefaultCost unless config says otherwise.
func HashPassword(password string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
