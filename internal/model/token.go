package model

import "time"

// Identity is what a verified token resolves to.
type Identity struct {
	AccountID int64  `json:"id"`
	Email     string `json:"email"`
	TokenID   string `json:"-"`
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"-"`
}
