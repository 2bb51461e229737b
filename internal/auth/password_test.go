package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("12345678", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "12345678", hash)

	require.NoError(t, ComparePassword(hash, "12345678"))
	require.Error(t, ComparePassword(hash, "87654321"))
}

func TestComparePassword_MalformedHash(t *testing.T) {
	t.Parallel()

	require.Error(t, ComparePassword("not-a-bcrypt-hash", "12345678"))
}
