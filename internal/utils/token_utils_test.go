package utils

import (
	"testing"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT("user-1", domain.RoleEditor, "secret", time.Minute, "registry")
	require.NoError(t, err)

	claims, err := ParseAndValidateJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleEditor, claims.Role)
	assert.Equal(t, "registry", claims.Issuer)
}

func TestParseAndValidateJWT_Rejects(t *testing.T) {
	token, err := GenerateJWT("user-1", domain.RoleViewer, "secret", time.Minute, "registry")
	require.NoError(t, err)
	_, err = ParseAndValidateJWT(token, "other-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired, err := GenerateJWT("user-1", domain.RoleViewer, "secret", -time.Minute, "registry")
	require.NoError(t, err)
	_, err = ParseAndValidateJWT(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
