package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"
	"maitred/internal/schedule"

	sq "github.com/Masterminds/squirrel"
)

const shiftColumns = `id, employee_id, employee_name, date, start_time, end_time,
       shift_type, position, status, break_duration, actual_start, actual_end,
       notes, created_at, updated_at, version`

// CreateShiftChecked inserts the shift only if no active shift of the same
// employee overlaps it, all inside one transaction. On conflict the colliding
// shifts are returned alongside ErrShiftConflict.
func (db *DB) CreateShiftChecked(ctx context.Context, s *models.Shift) ([]*models.Shift, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflicts, err := conflictingShiftsTx(ctx, tx, s.EmployeeID, s.Date, s.StartTime, s.EndTime, 0)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, ErrShiftConflict
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `INSERT INTO shifts (
            employee_id, employee_name, date, start_time, end_time,
            shift_type, position, status, break_duration, notes,
            created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.EmployeeID, s.EmployeeName, s.Date, s.StartTime, s.EndTime,
		s.ShiftType, s.Position, s.Status, s.BreakDuration, s.Notes,
		now, now, 1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shift: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	s.Version = 1

	return nil, tx.Commit()
}

// RetimeShiftChecked updates a shift's window and details, re-running the
// conflict check (excluding the shift itself) in the same transaction.
func (db *DB) RetimeShiftChecked(ctx context.Context, s *models.Shift) ([]*models.Shift, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflicts, err := conflictingShiftsTx(ctx, tx, s.EmployeeID, s.Date, s.StartTime, s.EndTime, s.ID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, ErrShiftConflict
	}

	result, err := tx.ExecContext(ctx, `UPDATE shifts
        SET date = ?, start_time = ?, end_time = ?, shift_type = ?, position = ?,
            break_duration = ?, notes = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`,
		s.Date, s.StartTime, s.EndTime, s.ShiftType, s.Position,
		s.BreakDuration, s.Notes, time.Now(), s.ID, s.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("update shift: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrConcurrentModification
	}
	s.Version++

	return nil, tx.Commit()
}

func conflictingShiftsTx(ctx context.Context, tx *sql.Tx, employeeID int64, date, start, end string, excludeID int64) ([]*models.Shift, error) {
	window, err := schedule.ClockInterval(start, end)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+shiftColumns+` FROM shifts
        WHERE employee_id = ? AND date = ? AND status IN (?, ?)`,
		employeeID, date, models.ShiftScheduled, models.ShiftInProgress)
	if err != nil {
		return nil, fmt.Errorf("load employee shifts: %w", err)
	}
	defer rows.Close()

	candidates, err := collectShifts(rows)
	if err != nil {
		return nil, err
	}

	return schedule.OverlappingShifts(candidates, window, excludeID), nil
}

func (db *DB) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = ?`
	return scanShift(db.QueryRowContext(ctx, query, id))
}

// GetActiveShiftsForEmployee returns scheduled and in-progress shifts of the
// employee on the date, for read-only conflict forecasts.
func (db *DB) GetActiveShiftsForEmployee(ctx context.Context, employeeID int64, date string) ([]*models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
        WHERE employee_id = ? AND date = ? AND status IN (?, ?) ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, employeeID, date, models.ShiftScheduled, models.ShiftInProgress)
	if err != nil {
		return nil, fmt.Errorf("get employee shifts: %w", err)
	}
	defer rows.Close()

	return collectShifts(rows)
}

// ListShifts applies the optional filter fields with a dynamically built query.
func (db *DB) ListShifts(ctx context.Context, filter models.ShiftFilter) ([]*models.Shift, error) {
	builder := sq.Select(shiftColumns).
		From("shifts").
		OrderBy("date ASC", "start_time ASC")

	if filter.EmployeeID != 0 {
		builder = builder.Where(sq.Eq{"employee_id": filter.EmployeeID})
	}
	if filter.Date != "" {
		builder = builder.Where(sq.Eq{"date": filter.Date})
	}
	if filter.FromDate != "" {
		builder = builder.Where(sq.GtOrEq{"date": filter.FromDate})
	}
	if filter.ToDate != "" {
		builder = builder.Where(sq.LtOrEq{"date": filter.ToDate})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Position != "" {
		builder = builder.Where(sq.Eq{"position": filter.Position})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build shifts query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	return collectShifts(rows)
}

// UpdateShiftState persists a status change with its clock stamps in one
// versioned update.
func (db *DB) UpdateShiftState(ctx context.Context, s *models.Shift) error {
	result, err := db.ExecContext(ctx, `UPDATE shifts
        SET status = ?, actual_start = ?, actual_end = ?, notes = ?,
            version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`,
		s.Status, s.ActualStart, s.ActualEnd, s.Notes,
		time.Now(), s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("update shift state: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	s.Version++
	return nil
}

func (db *DB) DeleteShift(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func scanShift(row rowScanner) (*models.Shift, error) {
	s := &models.Shift{}
	var position, notes sql.NullString
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.EmployeeName, &s.Date, &s.StartTime, &s.EndTime,
		&s.ShiftType, &position, &s.Status, &s.BreakDuration, &s.ActualStart, &s.ActualEnd,
		&notes, &s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan shift: %w", err)
	}
	s.Position = position.String
	s.Notes = notes.String
	return s, nil
}

func collectShifts(rows *sql.Rows) ([]*models.Shift, error) {
	var shifts []*models.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
