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

const reservationColumns = `id, user_id, confirmation_code, guest_name, guest_phone, guest_email,
       date, time, estimated_duration, party_size, table_number, table_type,
       status, special_request, cancelled_at, cancelled_by, cancel_reason,
       checked_in_at, completed_at, created_at, updated_at, version`

// CreateReservationChecked re-runs the capacity check and inserts the row in
// one transaction, so two concurrent requests cannot both squeeze into the
// last seats of a slot. The reserved load seen inside the transaction is
// returned either way.
func (db *DB) CreateReservationChecked(ctx context.Context, r *models.Reservation, capacity, diningDuration int) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	load, err := reservedLoadTx(ctx, tx, r.Date, r.Time, diningDuration, 0)
	if err != nil {
		return 0, err
	}
	if load+r.PartySize > capacity {
		return load, ErrCapacityExceeded
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `INSERT INTO reservations (
            user_id, confirmation_code, guest_name, guest_phone, guest_email,
            date, time, estimated_duration, party_size, table_number, table_type,
            status, special_request, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.ConfirmationCode, r.GuestName, r.GuestPhone, r.GuestEmail,
		r.Date, r.Time, r.EstimatedDuration, r.PartySize, r.TableNumber, r.TableType,
		r.Status, r.SpecialRequest, now, now, 1,
	)
	if err != nil {
		return load, fmt.Errorf("insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return load, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1

	return load, tx.Commit()
}

// RetimeReservationChecked moves a reservation to a new slot or party size,
// re-checking capacity against all other active reservations in the same
// transaction as the versioned update. The reserved load seen inside the
// transaction is returned either way.
func (db *DB) RetimeReservationChecked(ctx context.Context, r *models.Reservation, capacity, diningDuration int) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	load, err := reservedLoadTx(ctx, tx, r.Date, r.Time, diningDuration, r.ID)
	if err != nil {
		return 0, err
	}
	if load+r.PartySize > capacity {
		return load, ErrCapacityExceeded
	}

	result, err := tx.ExecContext(ctx, `UPDATE reservations
        SET date = ?, time = ?, estimated_duration = ?, party_size = ?,
            table_type = ?, special_request = ?, version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`,
		r.Date, r.Time, r.EstimatedDuration, r.PartySize,
		r.TableType, r.SpecialRequest, time.Now(), r.ID, r.Version,
	)
	if err != nil {
		return load, fmt.Errorf("update reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return load, ErrConcurrentModification
	}
	r.Version++

	return load, tx.Commit()
}

// reservedLoadTx computes the seat load overlapping the requested slot using
// only rows visible inside the transaction.
func reservedLoadTx(ctx context.Context, tx *sql.Tx, date, clock string, diningDuration int, excludeID int64) (int, error) {
	start, err := schedule.ParseClock(clock)
	if err != nil {
		return 0, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, time, party_size, status FROM reservations
        WHERE date = ? AND status IN (?, ?, ?)`,
		date, models.ReservationPending, models.ReservationConfirmed, models.ReservationSeated)
	if err != nil {
		return 0, fmt.Errorf("load active reservations: %w", err)
	}
	defer rows.Close()

	var active []*models.Reservation
	for rows.Next() {
		r := &models.Reservation{}
		if err := rows.Scan(&r.ID, &r.Time, &r.PartySize, &r.Status); err != nil {
			return 0, fmt.Errorf("scan reservation: %w", err)
		}
		if r.ID == excludeID {
			continue
		}
		active = append(active, r)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	load, _ := schedule.ReservedLoad(active, schedule.NewInterval(start, diningDuration), diningDuration)
	return load, nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	r, err := scanReservation(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	notes, err := db.getNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Notes = notes
	return r, nil
}

func (db *DB) GetReservationByCode(ctx context.Context, code string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE confirmation_code = ?`
	r, err := scanReservation(db.QueryRowContext(ctx, query, code))
	if err != nil {
		return nil, err
	}

	notes, err := db.getNotes(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Notes = notes
	return r, nil
}

// GetActiveReservationsByDate returns the reservations that consume capacity
// on the given date.
func (db *DB) GetActiveReservationsByDate(ctx context.Context, date string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
        WHERE date = ? AND status IN (?, ?, ?) ORDER BY time ASC`
	rows, err := db.QueryContext(ctx, query, date,
		models.ReservationPending, models.ReservationConfirmed, models.ReservationSeated)
	if err != nil {
		return nil, fmt.Errorf("get active reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListReservations applies the optional filter fields with a dynamically built
// query.
func (db *DB) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	builder := sq.Select(reservationColumns).
		From("reservations").
		OrderBy("date ASC", "time ASC")

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
	if filter.UserID != 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservations query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// UpdateReservationState persists a lifecycle transition: status plus its
// audit stamps in one versioned update, so a failed transition never leaves a
// partial mutation behind.
func (db *DB) UpdateReservationState(ctx context.Context, r *models.Reservation) error {
	result, err := db.ExecContext(ctx, `UPDATE reservations
        SET status = ?, table_number = ?, cancelled_at = ?, cancelled_by = ?,
            cancel_reason = ?, checked_in_at = ?, completed_at = ?,
            version = version + 1, updated_at = ?
        WHERE id = ? AND version = ?`,
		r.Status, r.TableNumber, r.CancelledAt, r.CancelledBy,
		r.CancelReason, r.CheckedInAt, r.CompletedAt,
		time.Now(), r.ID, r.Version,
	)
	if err != nil {
		return fmt.Errorf("update reservation state: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	r.Version++
	return nil
}

// AddReservationNote appends a staff note. Notes are insert-only.
func (db *DB) AddReservationNote(ctx context.Context, reservationID int64, note *models.StaffNote) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO reservation_notes (reservation_id, author_id, content, created_at) VALUES (?, ?, ?, ?)`,
		reservationID, note.AuthorID, note.Content, now,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	note.ID = id
	note.CreatedAt = now
	return nil
}

func (db *DB) getNotes(ctx context.Context, reservationID int64) ([]models.StaffNote, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, author_id, content, created_at FROM reservation_notes
         WHERE reservation_id = ? ORDER BY created_at ASC, id ASC`, reservationID)
	if err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}
	defer rows.Close()

	var notes []models.StaffNote
	for rows.Next() {
		var n models.StaffNote
		if err := rows.Scan(&n.ID, &n.AuthorID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	r := &models.Reservation{}
	var guestEmail, tableNumber, tableType, specialRequest, cancelReason sql.NullString
	err := row.Scan(
		&r.ID, &r.UserID, &r.ConfirmationCode, &r.GuestName, &r.GuestPhone, &guestEmail,
		&r.Date, &r.Time, &r.EstimatedDuration, &r.PartySize, &tableNumber, &tableType,
		&r.Status, &specialRequest, &r.CancelledAt, &r.CancelledBy, &cancelReason,
		&r.CheckedInAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	r.GuestEmail = guestEmail.String
	r.TableNumber = tableNumber.String
	r.TableType = tableType.String
	r.SpecialRequest = specialRequest.String
	r.CancelReason = cancelReason.String
	return r, nil
}

func collectReservations(rows *sql.Rows) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
