package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggiz/internal/model"
)

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "admin@bloggiz.com", model.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "admin@bloggiz.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID, "access tokens carry a JTI for revocation")

	parsed, err := claims.SubjectID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTService("test-secret")
	other := NewJWTService("different-secret")

	token, err := svc.GenerateAccessToken(uuid.New(), "a@b.c", model.RoleUser)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret")
	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestJWTService_ExtractTokenID(t *testing.T) {
	svc := NewJWTService("test-secret")

	tokenID, token, err := svc.GenerateRefreshToken(uuid.New(), "a@b.c", model.RoleUser)
	require.NoError(t, err)

	extracted, err := svc.ExtractTokenID(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, extracted)
}
