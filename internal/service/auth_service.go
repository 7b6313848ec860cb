package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-timeclock/internal/metrics"
	"go-timeclock/internal/model"
	"go-timeclock/internal/repository"
	"go-timeclock/pkg/apierror"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordLength = 72
)

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) error
}

type AuthService struct {
	accounts  repository.AccountRepository
	sessions  repository.SessionRepository
	issuer    *TokenIssuer
	hasher    passwordHasher
	directory *DirectoryService
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewAuthService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	issuer *TokenIssuer,
	hasher passwordHasher,
	directory *DirectoryService,
	m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		issuer:    issuer,
		hasher:    hasher,
		directory: directory,
		metrics:   m,
		now:       time.Now,
	}
}

// Bootstrap seeds a prototype manager when the account store is empty, so the
// first employee has someone to register under.
func (s *AuthService) Bootstrap(ctx context.Context, email string, password string) error {
	count, err := s.accounts.Count(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	account, err := s.accounts.Create(ctx, model.Account{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		FirstName:    "prototype",
		LastName:     "admin",
		IsManager:    true,
		Role:         "prototype admin",
		IsPrototype:  true,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, model.ErrAccountExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed prototype manager: %w", err)
	}

	slog.Info("prototype manager created", "account_id", account.ID, "email", account.Email)
	return nil
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return model.RegisterResponse{}, apierror.BadRequest(model.ErrInvalidInput, "email")
	}
	if len(req.Password) < minPasswordLength {
		return model.RegisterResponse{}, apierror.New(apierror.CodeBadRequest,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength), "password", http.StatusBadRequest)
	}
	if len(req.Password) > maxPasswordLength {
		return model.RegisterResponse{}, apierror.New(apierror.CodeBadRequest,
			fmt.Sprintf("password must be at most %d bytes", maxPasswordLength), "password", http.StatusBadRequest)
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return model.RegisterResponse{}, apierror.BadRequest(model.ErrAccountExists, email)
	} else if !errors.Is(err, model.ErrAccountNotFound) {
		return model.RegisterResponse{}, err
	}

	manager, err := s.directory.ResolveManager(ctx, req.ManagerID)
	if err != nil {
		s.count("register", "rejected")
		return model.RegisterResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.RegisterResponse{}, err
	}

	managerID := manager.ID
	account, err := s.accounts.Create(ctx, model.Account{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		IsManager:    req.IsManager,
		ManagerID:    &managerID,
		ManagerName:  manager.FullName(),
		Role:         strings.TrimSpace(req.Role),
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, model.ErrAccountExists) {
		return model.RegisterResponse{}, apierror.BadRequest(model.ErrAccountExists, email)
	}
	if err != nil {
		return model.RegisterResponse{}, err
	}

	token, err := s.issuer.IssueAccess(account.ID, account.Email)
	if err != nil {
		return model.RegisterResponse{}, fmt.Errorf("issue access token: %w", err)
	}

	s.count("register", "success")
	slog.Info("account registered", "account_id", account.ID, "manager_id", managerID, "is_manager", account.IsManager)
	return model.RegisterResponse{Token: token, User: account.View()}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, model.AccountView, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrAccountNotFound) {
		s.count("login", "failure")
		return model.TokenPair{}, model.AccountView{}, apierror.BadRequest(model.ErrInvalidCredentials, "")
	}
	if err != nil {
		return model.TokenPair{}, model.AccountView{}, err
	}

	if err := s.hasher.Verify(account.PasswordHash, password); err != nil {
		s.count("login", "failure")
		if errors.Is(err, model.ErrInvalidCredentials) {
			return model.TokenPair{}, model.AccountView{}, apierror.BadRequest(model.ErrInvalidCredentials, "")
		}
		return model.TokenPair{}, model.AccountView{}, err
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return model.TokenPair{}, model.AccountView{}, err
	}

	s.count("login", "success")
	return pair, account.View(), nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A token that was already rotated or logged out fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		s.count("refresh", "failure")
		return model.TokenPair{}, apierror.New(apierror.CodeUnauthorized, "missing refresh token", "", http.StatusUnauthorized)
	}

	identity, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		s.count("refresh", "failure")
		return model.TokenPair{}, apierror.Unauthorized(model.ErrInvalidToken)
	}

	ownerID, err := s.sessions.Consume(ctx, refreshToken)
	if errors.Is(err, model.ErrTokenNotFound) {
		s.count("refresh", "failure")
		slog.Warn("refresh token not current", "account_id", identity.AccountID, "jti", identity.TokenID)
		return model.TokenPair{}, apierror.Unauthorized(model.ErrInvalidToken)
	}
	if err != nil {
		return model.TokenPair{}, err
	}
	if ownerID != identity.AccountID {
		s.count("refresh", "failure")
		slog.Warn("refresh session owner mismatch; revoking sessions",
			"account_id", identity.AccountID, "session_owner", ownerID, "jti", identity.TokenID)
		for _, id := range []int64{identity.AccountID, ownerID} {
			if err := s.sessions.RevokeAllForAccount(ctx, id); err != nil {
				return model.TokenPair{}, err
			}
		}
		return model.TokenPair{}, apierror.Unauthorized(model.ErrInvalidToken)
	}

	account, err := s.accounts.FindByID(ctx, identity.AccountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		s.count("refresh", "failure")
		return model.TokenPair{}, apierror.Unauthorized(model.ErrInvalidToken)
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	pair, err := s.startSession(ctx, account)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.count("refresh", "success")
	return pair, nil
}

// Logout invalidates the refresh token server side. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return err
	}
	s.count("logout", "success")
	return nil
}

func (s *AuthService) CurrentAccount(ctx context.Context, accountID int64) (model.AccountView, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.AccountView{}, apierror.NotFound(model.ErrAccountNotFound, "")
	}
	if err != nil {
		return model.AccountView{}, err
	}
	return account.View(), nil
}

// VerifyAccess resolves an access token for the authorization middleware.
func (s *AuthService) VerifyAccess(token string) (model.Identity, error) {
	return s.issuer.VerifyAccess(token)
}

func (s *AuthService) RefreshTTL() time.Duration {
	return s.issuer.RefreshTTL()
}

// StartSessionSweeper removes expired refresh sessions on every tick until ctx
// is cancelled.
func (s *AuthService) StartSessionSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Hour
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.sweepSessions(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepSessions(ctx)
		}
	}
}

func (s *AuthService) sweepSessions(ctx context.Context) {
	removed, err := s.sessions.CleanExpired(ctx)
	if err != nil {
		slog.Error("session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("expired sessions removed", "count", removed)
	}
}

func (s *AuthService) startSession(ctx context.Context, account model.Account) (model.TokenPair, error) {
	pair, err := s.issuer.Issue(account.ID, account.Email)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	if err := s.sessions.Store(ctx, pair.RefreshToken, account.ID, pair.RefreshExpiresAt); err != nil {
		return model.TokenPair{}, err
	}
	return pair, nil
}

func (s *AuthService) count(kind string, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuthEvents.WithLabelValues(kind, outcome).Inc()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
