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

const recordColumns = `id, employee_id, work_date, start_time, end_time, status, manager_id,
	start_note, end_note, review_note, created_at, updated_at`

type PostgresAttendanceRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAttendanceRepository(pool *pgxpool.Pool) *PostgresAttendanceRepository {
	return &PostgresAttendanceRepository{pool: pool}
}

// Append relies on the partial unique index over open records, so two
// concurrent clock-ins for one employee cannot both succeed.
func (r *PostgresAttendanceRepository) Append(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	out, err := scanRecord(r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records (employee_id, work_date, start_time, status, manager_id,
		                                 start_note, end_note, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8)
		 RETURNING `+recordColumns,
		rec.EmployeeID, rec.Date, rec.StartTime, string(rec.Status), rec.ManagerID,
		rec.Notes.StartNote, rec.CreatedAt, rec.UpdatedAt))
	if isUniqueViolation(err) {
		return model.AttendanceRecord{}, model.ErrAlreadyClockedIn
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("append attendance record: %w", err)
	}
	return out, nil
}

func (r *PostgresAttendanceRepository) FindOpen(ctx context.Context, employeeID int64) (model.AttendanceRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE employee_id = $1 AND end_time IS NULL`, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AttendanceRecord{}, model.ErrNotClockedIn
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("find open record: %w", err)
	}
	return rec, nil
}

func (r *PostgresAttendanceRepository) FindByID(ctx context.Context, id int64) (model.AttendanceRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AttendanceRecord{}, model.ErrRecordNotFound
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("find record by id: %w", err)
	}
	return rec, nil
}

func (r *PostgresAttendanceRepository) Close(ctx context.Context, id int64, endTime string, endNote string, at time.Time) (model.AttendanceRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`UPDATE attendance_records
		 SET end_time = $2, end_note = $3, updated_at = $4
		 WHERE id = $1 AND end_time IS NULL
		 RETURNING `+recordColumns,
		id, endTime, endNote, at))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return model.AttendanceRecord{}, findErr
		}
		return model.AttendanceRecord{}, model.ErrNotClockedIn
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("close record: %w", err)
	}
	return rec, nil
}

func (r *PostgresAttendanceRepository) Review(ctx context.Context, id int64, status model.RecordStatus, reviewNote string, at time.Time) (model.AttendanceRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`UPDATE attendance_records
		 SET status = $2, review_note = COALESCE(NULLIF($3::text, ''), review_note), updated_at = $4
		 WHERE id = $1 AND status = 'pending' AND end_time IS NOT NULL
		 RETURNING `+recordColumns,
		id, string(status), reviewNote, at))
	if errors.Is(err, pgx.ErrNoRows) {
		current, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return model.AttendanceRecord{}, findErr
		}
		return model.AttendanceRecord{}, reviewBlocker(current)
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("review record: %w", err)
	}
	return rec, nil
}

func (r *PostgresAttendanceRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]model.AttendanceRecord, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records
		WHERE employee_id = $1 ORDER BY id`, employeeID)
}

func (r *PostgresAttendanceRepository) ListByManager(ctx context.Context, managerID int64) ([]model.AttendanceRecord, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM attendance_records
		WHERE manager_id = $1 ORDER BY id`, managerID)
}

func (r *PostgresAttendanceRepository) list(ctx context.Context, query string, arg int64) ([]model.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	var endTime *string
	var status string
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.StartTime, &endTime, &status,
		&rec.ManagerID, &rec.Notes.StartNote, &rec.Notes.EndNote, &rec.Notes.ReviewNote,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if endTime != nil {
		rec.EndTime = *endTime
	}
	rec.Status = model.RecordStatus(status)
	return rec, nil
}
