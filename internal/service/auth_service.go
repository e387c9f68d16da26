package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService issues and verifies the HS256 bearer tokens that carry
// the caller identity in the sub claim.
type AuthService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewAuthService creates an AuthService. ttl applies to issued tokens.
func NewAuthService(secret, issuer string, ttl time.Duration) *AuthService {
	return &AuthService{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// GenerateToken issues a signed token for the given user id.
func (s *AuthService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken validates a bearer token and returns the user id. An
// expired or malformed token returns an error before any side effect.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Subject, nil
}
