package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-timeclock/internal/model"
)

type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

func (r *PostgresSessionRepository) Store(ctx context.Context, token string, accountID int64, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_sessions (token, account_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		token, accountID, time.Now().UTC(), expiresAt)
	if err != nil {
		return fmt.Errorf("store refresh session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) Consume(ctx context.Context, token string) (int64, error) {
	var accountID int64
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx,
		`DELETE FROM refresh_sessions WHERE token = $1
		 RETURNING account_id, expires_at`, token).Scan(&accountID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("consume refresh session: %w", err)
	}
	if !expiresAt.After(time.Now()) {
		return 0, model.ErrTokenNotFound
	}
	return accountID, nil
}

func (r *PostgresSessionRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) RevokeAllForAccount(ctx context.Context, accountID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("revoke all refresh sessions: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired refresh sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
