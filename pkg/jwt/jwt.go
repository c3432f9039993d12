package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is what the session cookie carries. The session itself lives
// in Redis under SessionID, so revoking it there invalidates the cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens
type Manager struct {
	secret string
}

func NewManager(secret string) *Manager {
	return &Manager{secret: secret}
}

// GenerateSessionToken signs a token that expires after ttl.
func (m *Manager) GenerateSessionToken(sessionID, username string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		Username:  username,
		IsAdmin:   isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// ValidateToken verifies the signature and expiry and returns the claims.
func (m *Manager) ValidateToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SessionID == "" {
		return nil, errors.New("token has no session id")
	}

	return claims, nil
}
