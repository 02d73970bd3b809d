package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-service/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	token, err := GenerateToken("admin@acme.test", 42, "admin", "acme")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@acme.test", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "acme", claims.TenantSubdomain)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("user@acme.test", 7, "member", "acme")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenCarriesTenant(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	acmeToken, err := GenerateToken("user@acme.test", 1, "member", "acme")
	require.NoError(t, err)
	globexToken, err := GenerateToken("user@globex.test", 1, "member", "globex")
	require.NoError(t, err)

	acmeClaims, err := ValidateToken(acmeToken)
	require.NoError(t, err)
	globexClaims, err := ValidateToken(globexToken)
	require.NoError(t, err)

	// Same user id in two tenants must yield distinguishable tokens
	assert.NotEqual(t, acmeClaims.TenantSubdomain, globexClaims.TenantSubdomain)
}
