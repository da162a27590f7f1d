package auth

import (
	"testing"
	"time"

	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    7,
		Name:  "somchai",
		Phone: "0812345678",
		Role:  domain.RoleAdmin,
	}
}

func TestJWT_IssueValidate(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresAt, err := svc.Issue(testUser())
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "somchai", claims.Name)
	assert.Equal(t, "0812345678", claims.Phone)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestJWT_WrongSecret(t *testing.T) {
	svc := NewJWTService("secret-one", time.Hour)
	other := NewJWTService("secret-two", time.Hour)

	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, _, err := svc.Issue(testUser())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWT_Garbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
