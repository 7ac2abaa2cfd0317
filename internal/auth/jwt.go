package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager signs and validates the bearer tokens handed out at login.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a manager signing with HS256 and the given secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a signed token for a user ID.
func (m *TokenManager) GenerateToken(userID int64) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(m.ttl).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses a token string and returns the user ID (subject).
func (m *TokenManager) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	// JSON numbers decode as float64.
	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid subject claim", ErrInvalidToken)
	}
	return int64(userIDFloat), nil
}
