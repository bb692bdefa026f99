package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chovha/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:       "user-1",
		Phone:    "9800000000",
		UserType: domain.UserTypeDriver,
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", 30*24*time.Hour)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "9800000000", claims.Phone)
	assert.Equal(t, domain.UserTypeDriver, claims.UserType)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: "user-1", UserType: domain.UserTypeDriver}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Garbage(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
