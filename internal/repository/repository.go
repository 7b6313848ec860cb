package repository

import (
	"context"
	"time"

	"go-timeclock/internal/model"
)

// AccountRepository is the identity store. Create assigns the account id.
type AccountRepository interface {
	Create(ctx context.Context, account model.Account) (model.Account, error)
	FindByID(ctx context.Context, id int64) (model.Account, error)
	FindByEmail(ctx context.Context, email string) (model.Account, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Account, error)
	ListManagers(ctx context.Context) ([]model.Account, error)
	Count(ctx context.Context) (int, error)
}

// AttendanceRepository is the append-only ledger storage. It enforces the
// open-record invariant and the review compare-and-swap on its own, so the
// ledger stays correct even when two processes share one database.
type AttendanceRepository interface {
	// Append stores a new open record and assigns its id. It fails with
	// model.ErrAlreadyClockedIn when the employee already has an open record.
	Append(ctx context.Context, record model.AttendanceRecord) (model.AttendanceRecord, error)
	FindOpen(ctx context.Context, employeeID int64) (model.AttendanceRecord, error)
	FindByID(ctx context.Context, id int64) (model.AttendanceRecord, error)
	// Close sets the end time of an open record. It fails with
	// model.ErrNotClockedIn when the record is no longer open.
	Close(ctx context.Context, id int64, endTime string, endNote string, at time.Time) (model.AttendanceRecord, error)
	// Review moves a closed pending record to status. An empty reviewNote
	// leaves the stored note untouched.
	Review(ctx context.Context, id int64, status model.RecordStatus, reviewNote string, at time.Time) (model.AttendanceRecord, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]model.AttendanceRecord, error)
	ListByManager(ctx context.Context, managerID int64) ([]model.AttendanceRecord, error)
}

// SessionRepository maps live refresh tokens to the account they were issued to.
type SessionRepository interface {
	Store(ctx context.Context, token string, accountID int64, expiresAt time.Time) error
	// Consume removes token and returns its owner. A second Consume of the
	// same token fails with model.ErrTokenNotFound.
	Consume(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForAccount(ctx context.Context, accountID int64) error
	CleanExpired(ctx context.Context) (int64, error)
}

// reviewBlocker explains why a record cannot be reviewed.
func reviewBlocker(record model.AttendanceRecord) error {
	if record.IsOpen() {
		return model.ErrRecordOpen
	}
	return model.ErrRecordFinalized
}
