package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ar1701/demo-tedx/internal/common"
)

// Claims carries the standard registered claims plus the session ID the
// cookie refers to.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string
}

// GenerateToken mints an HS256 token carrying sessionID, valid for
// validityDuration.
func GenerateToken(sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		SessionID: sessionID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSessionIDFromToken validates tokenString and extracts the session ID.
func GetSessionIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.SessionID, nil
}
