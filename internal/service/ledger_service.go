package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-timeclock/internal/event"
	"go-timeclock/internal/metrics"
	"go-timeclock/internal/model"
	"go-timeclock/internal/repository"
	"go-timeclock/pkg/apierror"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	unknownName = "Unknown"
)

// LedgerService owns the attendance record lifecycle:
//
//	none --clock-in--> open/pending --clock-out--> closed/pending --approve|reject--> approved|rejected
//
// Approved and rejected records are terminal.
type LedgerService struct {
	records   repository.AttendanceRepository
	accounts  repository.AccountRepository
	directory *DirectoryService
	bus       event.Bus
	metrics   *metrics.Metrics
	location  *time.Location
	locks     *keyedMutex
	now       func() time.Time
}

func NewLedgerService(
	records repository.AttendanceRepository,
	accounts repository.AccountRepository,
	directory *DirectoryService,
	bus event.Bus,
	m *metrics.Metrics,
	location *time.Location,
) *LedgerService {
	if location == nil {
		location = time.UTC
	}
	return &LedgerService{
		records:   records,
		accounts:  accounts,
		directory: directory,
		bus:       bus,
		metrics:   m,
		location:  location,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// WithClock replaces the ledger's time source.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

func (s *LedgerService) ClockIn(ctx context.Context, employeeID int64, note string) (model.AttendanceRecord, error) {
	unlock := s.locks.Lock(employeeID)
	defer unlock()

	employee, err := s.accounts.FindByID(ctx, employeeID)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.AttendanceRecord{}, apierror.NotFound(model.ErrAccountNotFound, strconv.FormatInt(employeeID, 10))
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	if employee.ManagerID == nil {
		s.refused("clock_in", "no_manager")
		return model.AttendanceRecord{}, apierror.BadRequest(model.ErrNoManagerAssigned, "")
	}

	if _, err := s.records.FindOpen(ctx, employeeID); err == nil {
		s.refused("clock_in", "already_clocked_in")
		return model.AttendanceRecord{}, apierror.Conflict(model.ErrAlreadyClockedIn, "")
	} else if !errors.Is(err, model.ErrNotClockedIn) {
		return model.AttendanceRecord{}, err
	}

	now := s.now()
	local := now.In(s.location)
	created, err := s.records.Append(ctx, model.AttendanceRecord{
		EmployeeID: employeeID,
		Date:       local.Format(dateLayout),
		StartTime:  local.Format(clockLayout),
		Status:     model.StatusPending,
		ManagerID:  *employee.ManagerID,
		Notes:      model.RecordNotes{StartNote: strings.TrimSpace(note)},
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	})
	if errors.Is(err, model.ErrAlreadyClockedIn) {
		s.refused("clock_in", "already_clocked_in")
		return model.AttendanceRecord{}, apierror.Conflict(model.ErrAlreadyClockedIn, "")
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	s.accepted("clock_in", event.TypeClockedIn, employeeID, created)
	return created, nil
}

// ClockOut closes the open record. The start note is kept and note becomes
// the end note.
func (s *LedgerService) ClockOut(ctx context.Context, employeeID int64, note string) (model.AttendanceRecord, error) {
	unlock := s.locks.Lock(employeeID)
	defer unlock()

	open, err := s.records.FindOpen(ctx, employeeID)
	if errors.Is(err, model.ErrNotClockedIn) {
		s.refused("clock_out", "not_clocked_in")
		return model.AttendanceRecord{}, apierror.Conflict(model.ErrNotClockedIn, "")
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	now := s.now()
	closed, err := s.records.Close(ctx, open.ID, now.In(s.location).Format(clockLayout), strings.TrimSpace(note), now.UTC())
	if errors.Is(err, model.ErrNotClockedIn) {
		s.refused("clock_out", "not_clocked_in")
		return model.AttendanceRecord{}, apierror.Conflict(model.ErrNotClockedIn, "")
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	s.accepted("clock_out", event.TypeClockedOut, employeeID, closed)
	return closed, nil
}

func (s *LedgerService) Status(ctx context.Context, employeeID int64) (model.ClockStatus, error) {
	open, err := s.records.FindOpen(ctx, employeeID)
	if errors.Is(err, model.ErrNotClockedIn) {
		return model.ClockStatus{}, nil
	}
	if err != nil {
		return model.ClockStatus{}, err
	}
	return model.ClockStatus{ClockedIn: true, ActiveRecord: &open}, nil
}

func (s *LedgerService) EmployeeRecords(ctx context.Context, employeeID int64) ([]model.AttendanceRecord, error) {
	return s.records.ListByEmployee(ctx, employeeID)
}

// TeamRecords returns the records assigned to managerID, joined with the
// employee's display name and email.
func (s *LedgerService) TeamRecords(ctx context.Context, managerID int64) ([]model.TeamRecord, error) {
	records, err := s.records.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(records))
	seen := map[int64]struct{}{}
	for _, record := range records {
		if _, ok := seen[record.EmployeeID]; ok {
			continue
		}
		seen[record.EmployeeID] = struct{}{}
		ids = append(ids, record.EmployeeID)
	}

	employees, err := s.directory.Employees(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.TeamRecord, 0, len(records))
	for _, record := range records {
		enriched := model.TeamRecord{AttendanceRecord: record, EmployeeName: unknownName, EmployeeEmail: unknownName}
		if employee, ok := employees[record.EmployeeID]; ok {
			enriched.EmployeeName = employee.FullName()
			enriched.EmployeeEmail = employee.Email
		}
		out = append(out, enriched)
	}
	return out, nil
}

func (s *LedgerService) Approve(ctx context.Context, managerID int64, recordID int64) (model.AttendanceRecord, error) {
	return s.review(ctx, managerID, recordID, model.StatusApproved, "")
}

// Reject stores note as the review note; employee notes are never overwritten.
func (s *LedgerService) Reject(ctx context.Context, managerID int64, recordID int64, note string) (model.AttendanceRecord, error) {
	return s.review(ctx, managerID, recordID, model.StatusRejected, strings.TrimSpace(note))
}

func (s *LedgerService) review(ctx context.Context, managerID int64, recordID int64, status model.RecordStatus, note string) (model.AttendanceRecord, error) {
	action := "approve"
	eventType := event.TypeRecordApproved
	if status == model.StatusRejected {
		action = "reject"
		eventType = event.TypeRecordRejected
	}

	record, err := s.records.FindByID(ctx, recordID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return model.AttendanceRecord{}, apierror.NotFound(model.ErrRecordNotFound, strconv.FormatInt(recordID, 10))
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	if record.ManagerID != managerID {
		s.refused(action, "not_owner")
		return model.AttendanceRecord{}, apierror.Forbidden(model.ErrNotRecordOwner, strconv.FormatInt(recordID, 10))
	}

	updated, err := s.records.Review(ctx, recordID, status, note, s.now().UTC())
	switch {
	case errors.Is(err, model.ErrRecordOpen):
		s.refused(action, "open_record")
		return model.AttendanceRecord{}, apierror.Conflict(model.ErrRecordOpen, "")
	case errors.Is(err, model.ErrRecordFinalized):
		s.refused(action, "finalized")
		return model.AttendanceRecord{}, apierror.Conflict(model.ErrRecordFinalized, string(record.Status))
	case errors.Is(err, model.ErrRecordNotFound):
		return model.AttendanceRecord{}, apierror.NotFound(model.ErrRecordNotFound, strconv.FormatInt(recordID, 10))
	case err != nil:
		return model.AttendanceRecord{}, err
	}

	s.accepted(action, eventType, managerID, updated)
	return updated, nil
}

func (s *LedgerService) accepted(action string, eventType event.Type, actorID int64, record model.AttendanceRecord) {
	if s.metrics != nil {
		s.metrics.LedgerTransitions.WithLabelValues(action).Inc()
	}

	slog.Info("ledger transition",
		"action", action,
		"record_id", record.ID,
		"employee_id", record.EmployeeID,
		"manager_id", record.ManagerID,
		"status", record.Status,
	)

	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   record,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
		ManagerID: record.ManagerID,
	})
}

func (s *LedgerService) refused(action string, reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LedgerRejections.WithLabelValues(action, reason).Inc()
}
