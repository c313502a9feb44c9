package utils

import (
	"storefront/internal/pkg/config"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	config.GlobalConfig.JWT.Secret = strings.Repeat("k", 32)
	config.GlobalConfig.JWT.Expire = 1

	token, expireAt, err := GenerateToken("user-42", RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, expireAt)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	config.GlobalConfig.JWT.Secret = strings.Repeat("a", 32)
	token, _, err := GenerateToken("user-1", RoleCustomer)
	require.NoError(t, err)

	config.GlobalConfig.JWT.Secret = strings.Repeat("b", 32)
	_, err = ParseToken(token)
	assert.Error(t, err)
}
