package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret1@", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, VerifyPassword(hash, "Secret1@"))
	assert.False(t, VerifyPassword(hash, "secret1@"))
	assert.False(t, VerifyPassword("not-a-hash", "Secret1@"))
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("Secret1@", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("Secret1@", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
