package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-timeclock/internal/model"
)

var (
	_ AccountRepository    = (*MemoryAccountRepository)(nil)
	_ AttendanceRepository = (*MemoryAttendanceRepository)(nil)
	_ SessionRepository    = (*MemorySessionRepository)(nil)
)

type MemoryAccountRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]model.Account
	byEmail map[string]int64
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    map[int64]model.Account{},
		byEmail: map[string]int64{},
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account model.Account) (model.Account, error) {
	key := emailKey(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[key]; exists {
		return model.Account{}, model.ErrAccountExists
	}

	r.nextID++
	account.ID = r.nextID
	r.byID[account.ID] = account
	r.byEmail[key] = account.ID
	return account, nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id int64) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.byID[id]
	if !exists {
		return model.Account{}, model.ErrAccountNotFound
	}
	return account, nil
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[emailKey(email)]
	if !exists {
		return model.Account{}, model.ErrAccountNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryAccountRepository) FindByIDs(_ context.Context, ids []int64) (map[int64]model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int64]model.Account, len(ids))
	for _, id := range ids {
		if account, exists := r.byID[id]; exists {
			out[id] = account
		}
	}
	return out, nil
}

func (r *MemoryAccountRepository) ListManagers(_ context.Context) ([]model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	managers := make([]model.Account, 0)
	for _, account := range r.byID {
		if account.IsManager {
			managers = append(managers, account)
		}
	}
	sort.Slice(managers, func(i, j int) bool { return managers[i].ID < managers[j].ID })
	return managers, nil
}

func (r *MemoryAccountRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

type MemoryAttendanceRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records []model.AttendanceRecord
	index   map[int64]int
	open    map[int64]int64
}

func NewMemoryAttendanceRepository() *MemoryAttendanceRepository {
	return &MemoryAttendanceRepository{
		index: map[int64]int{},
		open:  map[int64]int64{},
	}
}

func (r *MemoryAttendanceRepository) Append(_ context.Context, record model.AttendanceRecord) (model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.open[record.EmployeeID]; exists {
		return model.AttendanceRecord{}, model.ErrAlreadyClockedIn
	}

	r.nextID++
	record.ID = r.nextID
	record.EndTime = ""
	r.index[record.ID] = len(r.records)
	r.records = append(r.records, record)
	r.open[record.EmployeeID] = record.ID
	return record, nil
}

func (r *MemoryAttendanceRepository) FindOpen(_ context.Context, employeeID int64) (model.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.open[employeeID]
	if !exists {
		return model.AttendanceRecord{}, model.ErrNotClockedIn
	}
	return r.records[r.index[id]], nil
}

func (r *MemoryAttendanceRepository) FindByID(_ context.Context, id int64) (model.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[id]
	if !exists {
		return model.AttendanceRecord{}, model.ErrRecordNotFound
	}
	return r.records[pos], nil
}

func (r *MemoryAttendanceRepository) Close(_ context.Context, id int64, endTime string, endNote string, at time.Time) (model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, exists := r.index[id]
	if !exists {
		return model.AttendanceRecord{}, model.ErrRecordNotFound
	}

	record := r.records[pos]
	if !record.IsOpen() {
		return model.AttendanceRecord{}, model.ErrNotClockedIn
	}

	record.EndTime = endTime
	record.Notes.EndNote = endNote
	record.UpdatedAt = at
	r.records[pos] = record
	delete(r.open, record.EmployeeID)
	return record, nil
}

func (r *MemoryAttendanceRepository) Review(_ context.Context, id int64, status model.RecordStatus, reviewNote string, at time.Time) (model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, exists := r.index[id]
	if !exists {
		return model.AttendanceRecord{}, model.ErrRecordNotFound
	}

	record := r.records[pos]
	if record.IsOpen() || record.Status != model.StatusPending {
		return model.AttendanceRecord{}, reviewBlocker(record)
	}

	record.Status = status
	if reviewNote != "" {
		record.Notes.ReviewNote = reviewNote
	}
	record.UpdatedAt = at
	r.records[pos] = record
	return record, nil
}

func (r *MemoryAttendanceRepository) ListByEmployee(_ context.Context, employeeID int64) ([]model.AttendanceRecord, error) {
	return r.filter(func(record model.AttendanceRecord) bool { return record.EmployeeID == employeeID }), nil
}

func (r *MemoryAttendanceRepository) ListByManager(_ context.Context, managerID int64) ([]model.AttendanceRecord, error) {
	return r.filter(func(record model.AttendanceRecord) bool { return record.ManagerID == managerID }), nil
}

func (r *MemoryAttendanceRepository) filter(keep func(model.AttendanceRecord) bool) []model.AttendanceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.AttendanceRecord, 0)
	for _, record := range r.records {
		if keep(record) {
			out = append(out, record)
		}
	}
	return out
}

type memorySession struct {
	accountID int64
	expiresAt time.Time
}

type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: map[string]memorySession{},
		now:      time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (r *MemorySessionRepository) WithClock(now func() time.Time) *MemorySessionRepository {
	r.now = now
	return r
}

func (r *MemorySessionRepository) Store(_ context.Context, token string, accountID int64, expiresAt time.Time) error {
	r.mu.Lock()
	r.sessions[token] = memorySession{accountID: accountID, expiresAt: expiresAt}
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Consume(_ context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[token]
	if !exists {
		return 0, model.ErrTokenNotFound
	}
	delete(r.sessions, token)

	if !session.expiresAt.After(r.now()) {
		return 0, model.ErrTokenNotFound
	}
	return session.accountID, nil
}

func (r *MemorySessionRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) RevokeAllForAccount(_ context.Context, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, session := range r.sessions {
		if session.accountID == accountID {
			delete(r.sessions, token)
		}
	}
	return nil
}

func (r *MemorySessionRepository) CleanExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed int64
	for token, session := range r.sessions {
		if !session.expiresAt.After(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
