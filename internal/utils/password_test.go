package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-velora")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("s3cret-velora", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("mauvais-mot-de-passe", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	h1, err := HashPassword("même-mot-de-passe")
	require.NoError(t, err)
	h2, err := HashPassword("même-mot-de-passe")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "$2a$10$pas-un-hash-argon2")
	assert.Error(t, err)
}
