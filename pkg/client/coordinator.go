package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired means the session could not be renewed and the caller has
// to log in again.
var ErrSessionExpired = errors.New("session expired")

const (
	rotationKey           = "refresh"
	defaultRefreshTimeout = 10 * time.Second
)

// Tokens is what a successful rotation hands back.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// RefreshFunc exchanges a refresh token for a new pair.
type RefreshFunc func(ctx context.Context, refreshToken string) (Tokens, error)

// RefreshCoordinator guarantees at most one rotation call in flight. Callers
// that hit an expired access token while a rotation is running wait for it
// and share its result.
type RefreshCoordinator struct {
	group   singleflight.Group
	creds   CredentialStore
	refresh RefreshFunc
	timeout time.Duration
}

func NewRefreshCoordinator(creds CredentialStore, refresh RefreshFunc, timeout time.Duration) *RefreshCoordinator {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &RefreshCoordinator{creds: creds, refresh: refresh, timeout: timeout}
}

// OnAuthFailure returns the access token a request rejected with staleToken
// should be replayed with. It starts a rotation or joins the one in flight.
// Cancelling ctx abandons the wait but not the shared rotation.
func (c *RefreshCoordinator) OnAuthFailure(ctx context.Context, staleToken string) (string, error) {
	if current := c.creds.AccessToken(); current != "" && current != staleToken {
		return current, nil
	}

	result := c.group.DoChan(rotationKey, func() (any, error) {
		return c.rotate(staleToken)
	})

	select {
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *RefreshCoordinator) rotate(staleToken string) (string, error) {
	// A rotation may have finished between the caller's check and this flight.
	if current := c.creds.AccessToken(); current != "" && current != staleToken {
		return current, nil
	}

	refreshToken := c.creds.RefreshToken()
	if refreshToken == "" {
		c.creds.Clear()
		return "", ErrSessionExpired
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	tokens, err := c.refresh(ctx, refreshToken)
	if err != nil {
		c.creds.Clear()
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if tokens.AccessToken == "" {
		c.creds.Clear()
		return "", fmt.Errorf("%w: empty access token", ErrSessionExpired)
	}

	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	c.creds.Set(tokens.AccessToken, tokens.RefreshToken)
	return tokens.AccessToken, nil
}
