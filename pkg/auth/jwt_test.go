package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-desk-test")
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "desk@example.com", "receptionist")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "desk@example.com", claims.Email)
	assert.Equal(t, "receptionist", claims.Role)
	assert.Equal(t, "clinic-desk-test", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-desk-test")
	other := NewJWTService("other-secret", time.Hour, "clinic-desk-test")

	token, err := svc.GenerateToken(uuid.New(), "desk@example.com", "receptionist")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute, "clinic-desk-test")

	token, err := svc.GenerateToken(uuid.New(), "desk@example.com", "doctor")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, "clinic-desk-test")
	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
