package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"go-timeclock/internal/model"
)

type stubVerifier map[string]model.Identity

func (s stubVerifier) VerifyAccess(token string) (model.Identity, error) {
	identity, ok := s[token]
	if !ok {
		return model.Identity{}, model.ErrInvalidToken
	}
	return identity, nil
}

type stubManagers map[int64]bool

func (s stubManagers) IsManager(_ context.Context, accountID int64) (bool, error) {
	if accountID == 500 {
		return false, errors.New("directory unavailable")
	}
	return s[accountID], nil
}

func newGate() *AuthMiddleware {
	return NewAuthMiddleware(
		stubVerifier{
			"employee-token": {AccountID: 2, Email: "worker@example.com"},
			"manager-token":  {AccountID: 1, Email: "boss@example.com"},
			"broken-token":   {AccountID: 500},
		},
		stubManagers{1: true},
	)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	var seen model.Identity
	handler := newGate().RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = identity
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer employee-token", status: http.StatusNoContent},
		{name: "case insensitive scheme", header: "bearer employee-token", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/employees/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				require.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}

	require.Equal(t, int64(2), seen.AccountID)
}

func TestRequireManager(t *testing.T) {
	t.Parallel()

	gate := newGate()
	handler := gate.RequireAuth(gate.RequireManager(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := map[string]int{
		"manager-token":  http.StatusNoContent,
		"employee-token": http.StatusForbidden,
		"broken-token":   http.StatusInternalServerError,
	}
	for token, status := range tests {
		t.Run(token, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/employees/team-records", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, status, rec.Code)
		})
	}

	t.Run("without identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.RequireManager(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
