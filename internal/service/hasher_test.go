package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-timeclock/internal/model"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("admin123")
	require.NoError(t, err)
	require.NotEqual(t, "admin123", hash)

	other, err := hasher.Hash("admin123")
	require.NoError(t, err)
	require.NotEqual(t, hash, other, "hashes are salted")

	require.NoError(t, hasher.Verify(hash, "admin123"))
	require.ErrorIs(t, hasher.Verify(hash, "admin124"), model.ErrInvalidCredentials)
	require.Error(t, hasher.Verify("not-a-hash", "admin123"))

	_, err = hasher.Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	t.Parallel()

	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	require.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	require.Equal(t, 12, NewBcryptHasher(12).cost)
}
