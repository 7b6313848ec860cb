//go:build integration

package repository

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"go-timeclock/internal/database"
	"go-timeclock/internal/model"
)

// newPostgresPool connects to DATABASE_URL inside a throwaway schema that is
// dropped when the test ends.
func newPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL is not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schema := "timeclock_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	db, err := database.New(ctx, withSearchPath(t, databaseURL, schema), 8, 0)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	return db.Pool
}

func withSearchPath(t *testing.T, databaseURL string, schema string) string {
	t.Helper()

	if !strings.Contains(databaseURL, "://") {
		return databaseURL + " search_path=" + schema
	}
	parsed, err := url.Parse(databaseURL)
	require.NoError(t, err)
	query := parsed.Query()
	query.Set("search_path", schema)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func seedPostgresTeam(t *testing.T, accounts *PostgresAccountRepository) (model.Account, model.Account) {
	t.Helper()
	ctx := context.Background()

	manager, err := accounts.Create(ctx, model.Account{Email: "boss@example.com", FirstName: "Mia", IsManager: true, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	employee, err := accounts.Create(ctx, model.Account{Email: "worker@example.com", ManagerID: &manager.ID, ManagerName: "Mia", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	return manager, employee
}

func openRecord(employee model.Account, managerID int64, at time.Time) model.AttendanceRecord {
	return model.AttendanceRecord{
		EmployeeID: employee.ID,
		ManagerID:  managerID,
		Date:       at.Format(time.DateOnly),
		StartTime:  at.Format("15:04"),
		Status:     model.StatusPending,
		Notes:      model.RecordNotes{StartNote: "on site"},
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func TestPostgresAccountRepository(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	repo := NewPostgresAccountRepository(pool)

	manager, employee := seedPostgresTeam(t, repo)

	_, err := repo.Create(ctx, model.Account{Email: "  BOSS@Example.com ", CreatedAt: time.Now().UTC()})
	require.ErrorIs(t, err, model.ErrAccountExists)

	found, err := repo.FindByEmail(ctx, "Worker@Example.com")
	require.NoError(t, err)
	require.Equal(t, employee.ID, found.ID)
	require.NotNil(t, found.ManagerID)
	require.Equal(t, manager.ID, *found.ManagerID)

	_, err = repo.FindByID(ctx, manager.ID+1000)
	require.ErrorIs(t, err, model.ErrAccountNotFound)

	managers, err := repo.ListManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	require.Equal(t, manager.ID, managers[0].ID)

	byIDs, err := repo.FindByIDs(ctx, []int64{manager.ID, employee.ID, manager.ID + 1000})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestPostgresAttendanceLifecycle(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	accounts := NewPostgresAccountRepository(pool)
	repo := NewPostgresAttendanceRepository(pool)
	manager, employee := seedPostgresTeam(t, accounts)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	open, err := repo.Append(ctx, openRecord(employee, manager.ID, now))
	require.NoError(t, err)
	require.True(t, open.IsOpen())
	require.Equal(t, "09:00", open.StartTime)

	_, err = repo.Append(ctx, openRecord(employee, manager.ID, now.Add(time.Minute)))
	require.ErrorIs(t, err, model.ErrAlreadyClockedIn, "partial unique index guards the open record")

	current, err := repo.FindOpen(ctx, employee.ID)
	require.NoError(t, err)
	require.Equal(t, open.ID, current.ID)

	_, err = repo.Review(ctx, open.ID, model.StatusApproved, "", now)
	require.ErrorIs(t, err, model.ErrRecordOpen)

	closed, err := repo.Close(ctx, open.ID, "17:00", "done", now.Add(8*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "17:00", closed.EndTime)
	require.Equal(t, "on site", closed.Notes.StartNote)
	require.Equal(t, "done", closed.Notes.EndNote)

	_, err = repo.Close(ctx, open.ID, "18:00", "", now.Add(9*time.Hour))
	require.ErrorIs(t, err, model.ErrNotClockedIn)

	_, err = repo.Close(ctx, open.ID+1000, "18:00", "", now)
	require.ErrorIs(t, err, model.ErrRecordNotFound)

	_, err = repo.FindOpen(ctx, employee.ID)
	require.ErrorIs(t, err, model.ErrNotClockedIn)

	rejected, err := repo.Review(ctx, open.ID, model.StatusRejected, "missing lunch break", now.Add(10*time.Hour))
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, rejected.Status)
	require.Equal(t, "missing lunch break", rejected.Notes.ReviewNote)
	require.Equal(t, "on site", rejected.Notes.StartNote)
	require.Equal(t, "done", rejected.Notes.EndNote)

	_, err = repo.Review(ctx, open.ID, model.StatusApproved, "", now.Add(11*time.Hour))
	require.ErrorIs(t, err, model.ErrRecordFinalized)

	_, err = repo.Review(ctx, open.ID+1000, model.StatusApproved, "", now)
	require.ErrorIs(t, err, model.ErrRecordNotFound)

	second, err := repo.Append(ctx, openRecord(employee, manager.ID, now.Add(24*time.Hour)))
	require.NoError(t, err)
	require.Greater(t, second.ID, open.ID)

	_, err = repo.Close(ctx, second.ID, "12:00", "", now.Add(27*time.Hour))
	require.NoError(t, err)
	approved, err := repo.Review(ctx, second.ID, model.StatusApproved, "", now.Add(28*time.Hour))
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, approved.Status)
	require.Empty(t, approved.Notes.ReviewNote)

	byManager, err := repo.ListByManager(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, byManager, 2)
	require.Equal(t, open.ID, byManager[0].ID)

	byEmployee, err := repo.ListByEmployee(ctx, manager.ID)
	require.NoError(t, err)
	require.Empty(t, byEmployee)
}

func TestPostgresConcurrentAppendOpensOneRecord(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	accounts := NewPostgresAccountRepository(pool)
	repo := NewPostgresAttendanceRepository(pool)
	manager, employee := seedPostgresTeam(t, accounts)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Append(ctx, openRecord(employee, manager.ID, now))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, model.ErrAlreadyClockedIn)
	}
	require.Equal(t, 1, successes)
}

func TestPostgresConcurrentReviewSingleWinner(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	accounts := NewPostgresAccountRepository(pool)
	repo := NewPostgresAttendanceRepository(pool)
	manager, employee := seedPostgresTeam(t, accounts)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	rec, err := repo.Append(ctx, openRecord(employee, manager.ID, now))
	require.NoError(t, err)
	_, err = repo.Close(ctx, rec.ID, "17:00", "", now.Add(8*time.Hour))
	require.NoError(t, err)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := model.StatusApproved
			if i%2 == 1 {
				status = model.StatusRejected
			}
			_, err := repo.Review(ctx, rec.ID, status, "", now.Add(9*time.Hour))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, model.ErrRecordFinalized)
	}
	require.Equal(t, 1, successes)
}

func TestPostgresSessionRepository(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	accounts := NewPostgresAccountRepository(pool)
	repo := NewPostgresSessionRepository(pool)
	manager, employee := seedPostgresTeam(t, accounts)
	now := time.Now().UTC()

	require.NoError(t, repo.Store(ctx, "live", employee.ID, now.Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, "stale", employee.ID, now.Add(-time.Minute)))
	require.NoError(t, repo.Store(ctx, "manager-a", manager.ID, now.Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, "manager-b", manager.ID, now.Add(time.Hour)))
	require.NoError(t, repo.Store(ctx, "logged-out", employee.ID, now.Add(time.Hour)))

	owner, err := repo.Consume(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, employee.ID, owner)

	_, err = repo.Consume(ctx, "live")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	require.NoError(t, repo.Revoke(ctx, "logged-out"))
	require.NoError(t, repo.Revoke(ctx, "logged-out"))
	_, err = repo.Consume(ctx, "logged-out")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	removed, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	_, err = repo.Consume(ctx, "stale")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	require.NoError(t, repo.RevokeAllForAccount(ctx, manager.ID))
	for _, token := range []string{"manager-a", "manager-b"} {
		_, err = repo.Consume(ctx, token)
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	}
}

func TestPostgresConsumeExpiredSession(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	accounts := NewPostgresAccountRepository(pool)
	repo := NewPostgresSessionRepository(pool)
	_, employee := seedPostgresTeam(t, accounts)

	require.NoError(t, repo.Store(ctx, "expired", employee.ID, time.Now().UTC().Add(-time.Second)))

	_, err := repo.Consume(ctx, "expired")
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	removed, err := repo.CleanExpired(ctx)
	require.NoError(t, err)
	require.Zero(t, removed, "consume deletes the row even when it has expired")
}

func TestPostgresConcurrentConsumeSingleWinner(t *testing.T) {
	pool := newPostgresPool(t)
	ctx := context.Background()
	accounts := NewPostgresAccountRepository(pool)
	repo := NewPostgresSessionRepository(pool)
	_, employee := seedPostgresTeam(t, accounts)

	require.NoError(t, repo.Store(ctx, "shared", employee.ID, time.Now().UTC().Add(time.Hour)))

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Consume(ctx, "shared")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	}
	require.Equal(t, 1, successes)
}
