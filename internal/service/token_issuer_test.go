package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"go-timeclock/internal/model"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	issuer.WithClock(clock.Now)

	pair, err := issuer.Issue(42, "worker@example.com")
	require.NoError(t, err)
	require.Equal(t, clock.Now().Add(15*time.Minute), pair.AccessExpiresAt)
	require.Equal(t, clock.Now().Add(7*24*time.Hour), pair.RefreshExpiresAt)

	identity, err := issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), identity.AccountID)
	require.Equal(t, "worker@example.com", identity.Email)

	refreshIdentity, err := issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), refreshIdentity.AccountID)

	clock.Advance(16 * time.Minute)
	_, err = issuer.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, model.ErrInvalidToken)

	_, err = issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err, "refresh token outlives the access token")

	clock.Advance(7 * 24 * time.Hour)
	_, err = issuer.VerifyRefresh(pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestTokenIssuerRejectsCrossedTokens(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := issuer.Issue(1, "a@example.com")
	require.NoError(t, err)

	_, err = issuer.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrInvalidToken)

	_, err = issuer.VerifyRefresh(pair.AccessToken)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestTokenIssuerRejectsForeignTokens(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other-access", "other-refresh", time.Minute, time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue(1, "a@example.com")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "1",
		"typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not-a-token",
		"empty":          "",
		"foreign secret": foreign.AccessToken,
		"alg none":       unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.VerifyAccess(token)
			require.ErrorIs(t, err, model.ErrInvalidToken)
		})
	}
}

func TestNewTokenIssuerValidatesSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("", "refresh", time.Minute, time.Hour)
	require.Error(t, err)

	_, err = NewTokenIssuer("same", "same", time.Minute, time.Hour)
	require.Error(t, err)
}
