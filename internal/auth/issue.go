package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issue signs a token for the given identity. Used by local tooling and
// tests; production tokens come from the account service.
func Issue(secret, userID, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(secret))
}
