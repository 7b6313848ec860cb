package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-timeclock/internal/event"
	"go-timeclock/internal/metrics"
	"go-timeclock/internal/model"
	"go-timeclock/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	c.now = at
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock     *fakeClock
	accounts  *repository.MemoryAccountRepository
	records   *repository.MemoryAttendanceRepository
	sessions  *repository.MemorySessionRepository
	issuer    *TokenIssuer
	directory *DirectoryService
	auth      *AuthService
	ledger    *LedgerService
	bus       *event.InMemoryBus
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	issuer, err := NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	issuer.WithClock(clock.Now)

	f := &fixture{
		clock:    clock,
		accounts: repository.NewMemoryAccountRepository(),
		records:  repository.NewMemoryAttendanceRepository(),
		sessions: repository.NewMemorySessionRepository().WithClock(clock.Now),
		issuer:   issuer,
		bus:      event.NewBus(),
		metrics:  metrics.New(),
	}
	f.directory = NewDirectoryService(f.accounts)
	f.auth = NewAuthService(f.accounts, f.sessions, issuer, NewBcryptHasher(bcrypt.MinCost), f.directory, f.metrics)
	f.auth.now = clock.Now
	f.ledger = NewLedgerService(f.records, f.accounts, f.directory, f.bus, f.metrics, time.UTC).WithClock(clock.Now)
	return f
}

// seedManager stores a manager directly, bypassing registration.
func (f *fixture) seedManager(t *testing.T, email string) model.Account {
	t.Helper()
	account, err := f.accounts.Create(context.Background(), model.Account{
		Email:     email,
		FirstName: "Mia",
		LastName:  "Manager",
		IsManager: true,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) seedEmployee(t *testing.T, email string, managerID int64) model.Account {
	t.Helper()
	account, err := f.accounts.Create(context.Background(), model.Account{
		Email:     email,
		FirstName: "Eli",
		LastName:  "Employee",
		ManagerID: &managerID,
	})
	require.NoError(t, err)
	return account
}

func int64Ptr(v int64) *int64 {
	return &v
}
