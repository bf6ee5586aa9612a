package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-portal-api/internal/models"
)

func signTestToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "uid-1",
		Role:   models.RoleAdmin,
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenAccepts(t *testing.T) {
	svc := NewTokenService("test-secret")
	signed := signTestToken(t, "test-secret", time.Now().Add(time.Hour))

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService("test-secret")
	signed := signTestToken(t, "other-secret", time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret")
	signed := signTestToken(t, "test-secret", time.Now().Add(-time.Hour))

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}
