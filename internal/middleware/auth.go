package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"go-timeclock/internal/model"
	"go-timeclock/pkg/apierror"
)

type tokenVerifier interface {
	VerifyAccess(token string) (model.Identity, error)
}

type managerChecker interface {
	IsManager(ctx context.Context, accountID int64) (bool, error)
}

type contextKey string

const (
	identityContextKey    contextKey = "identity"
	accountSlotContextKey contextKey = "account-slot"
)

// AuthMiddleware is the gate in front of protected routes. Every request must
// carry a valid access token; manager routes additionally require the caller
// to hold the manager flag in the directory.
type AuthMiddleware struct {
	verifier tokenVerifier
	managers managerChecker
}

func NewAuthMiddleware(verifier tokenVerifier, managers managerChecker) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, managers: managers}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeGateError(w, apierror.New(apierror.CodeUnauthorized, "missing or invalid authorization header", "", http.StatusUnauthorized))
			return
		}

		identity, err := m.verifier.VerifyAccess(strings.TrimSpace(header[7:]))
		if err != nil {
			writeGateError(w, apierror.Unauthorized(model.ErrInvalidToken))
			return
		}

		noteAccount(r.Context(), identity.AccountID)
		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireManager must run after RequireAuth.
func (m *AuthMiddleware) RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeGateError(w, apierror.Unauthorized(model.ErrUnauthenticated))
			return
		}

		isManager, err := m.managers.IsManager(r.Context(), identity.AccountID)
		if err != nil {
			slog.Error("manager lookup failed", "account_id", identity.AccountID, "error", err)
			writeGateError(w, apierror.New(apierror.CodeInternal, "Unexpected server error", "", http.StatusInternalServerError))
			return
		}
		if !isManager {
			writeGateError(w, apierror.Forbidden(model.ErrManagerRoleRequired, ""))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok
}

// noteAccount reports the authenticated account back to Logging. The slot is
// atomic because http.TimeoutHandler runs the inner chain on its own goroutine.
func noteAccount(ctx context.Context, accountID int64) {
	if slot, ok := ctx.Value(accountSlotContextKey).(*atomic.Int64); ok {
		slot.Store(accountID)
	}
}

func writeGateError(w http.ResponseWriter, err *apierror.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)

	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	})
}
