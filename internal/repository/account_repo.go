package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-timeclock/internal/model"
)

const pgUniqueViolation = "23505"

const accountColumns = `id, email, password_hash, first_name, last_name, is_manager,
	manager_id, manager_name, role, is_prototype, created_at`

type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func (r *PostgresAccountRepository) Create(ctx context.Context, a model.Account) (model.Account, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, password_hash, first_name, last_name, is_manager,
		                       manager_id, manager_name, role, is_prototype, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		emailKey(a.Email), a.PasswordHash, a.FirstName, a.LastName, a.IsManager,
		a.ManagerID, a.ManagerName, a.Role, a.IsPrototype, a.CreatedAt).Scan(&a.ID)
	if isUniqueViolation(err) {
		return model.Account{}, model.ErrAccountExists
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}
	a.Email = emailKey(a.Email)
	return a, nil
}

func (r *PostgresAccountRepository) FindByID(ctx context.Context, id int64) (model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, emailKey(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, model.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by email: %w", err)
	}
	return a, nil
}

func (r *PostgresAccountRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Account, error) {
	out := make(map[int64]model.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find accounts by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *PostgresAccountRepository) ListManagers(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE is_manager ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	defer rows.Close()

	managers := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manager: %w", err)
		}
		managers = append(managers, a)
	}
	return managers, rows.Err()
}

func (r *PostgresAccountRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.IsManager,
		&a.ManagerID, &a.ManagerName, &a.Role, &a.IsPrototype, &a.CreatedAt)
	return a, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
