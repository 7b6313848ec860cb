package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-timeclock/internal/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies access and refresh tokens. The two kinds use
// independent secrets and lifetimes, so a refresh token never passes as an
// access token or the other way round.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// WithClock replaces the issuer's time source.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

func (i *TokenIssuer) Issue(accountID int64, email string) (model.TokenPair, error) {
	now := i.now().UTC()

	access, accessExp, err := i.sign(accountID, email, tokenTypeAccess, i.accessSecret, now, i.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refresh, refreshExp, err := i.sign(accountID, email, tokenTypeRefresh, i.refreshSecret, now, i.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess mints a standalone access token, as handed out at registration.
func (i *TokenIssuer) IssueAccess(accountID int64, email string) (string, error) {
	token, _, err := i.sign(accountID, email, tokenTypeAccess, i.accessSecret, i.now().UTC(), i.accessTTL)
	return token, err
}

func (i *TokenIssuer) VerifyAccess(token string) (model.Identity, error) {
	return i.verify(token, tokenTypeAccess, i.accessSecret)
}

func (i *TokenIssuer) VerifyRefresh(token string) (model.Identity, error) {
	return i.verify(token, tokenTypeRefresh, i.refreshSecret)
}

func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *TokenIssuer) sign(accountID int64, email string, typ string, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Email: email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) verify(token string, typ string, secret []byte) (model.Identity, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return model.Identity{}, model.ErrInvalidToken
	}

	if claims.Type != typ {
		return model.Identity{}, model.ErrInvalidToken
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return model.Identity{}, model.ErrInvalidToken
	}

	return model.Identity{AccountID: accountID, Email: claims.Email, TokenID: claims.ID}, nil
}
