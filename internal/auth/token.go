// Package auth signs and validates the bearer tokens handed out after OTP
// verification.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chovha/internal/domain"
)

const issuer = "chovha"

// ErrInvalidToken is returned for malformed, forged or expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload carried by a bearer token.
type Claims struct {
	UserID   string          `json:"id"`
	Phone    string          `json:"phone"`
	UserType domain.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for user.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := s.now()

	claims := &Claims{
		UserID:   user.ID,
		Phone:    user.Phone,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
