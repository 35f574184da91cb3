package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"courtbook/internal/models"
)

// CreateBookingExclusive inserts a confirmed booking as a single conditional
// write. There is no availability pre-check: the partial unique index on
// (venue_id, date, start_hour) decides the winner, and a constraint
// violation surfaces as ErrDuplicateSlot. This is what makes concurrent
// reservations of the same slot safe.
func (db *DB) CreateBookingExclusive(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO bookings (id, venue_id, requester_id, date, start_hour, end_hour, total_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.VenueID, b.RequesterID, b.Date, b.StartHour, b.EndHour, b.TotalPrice, models.StatusConfirmed, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	b.Status = models.StatusConfirmed
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// GetBooking returns a booking by ID.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, venue_id, requester_id, date, start_hour, end_hour, total_price, status, created_at, updated_at
		FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// ListConfirmedBookings returns all confirmed bookings for a venue and date,
// ordered by start hour. Used by the availability read path; errors must
// propagate so the caller fails closed instead of showing free slots.
func (db *DB) ListConfirmedBookings(ctx context.Context, venueID int64, date string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, venue_id, requester_id, date, start_hour, end_hour, total_price, status, created_at, updated_at
		FROM bookings
		WHERE venue_id = ? AND date = ? AND status = ?
		ORDER BY start_hour`,
		venueID, date, models.StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListBookingsForDate returns every booking for a venue/date regardless of
// status, for reporting.
func (db *DB) ListBookingsForDate(ctx context.Context, venueID int64, date string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, venue_id, requester_id, date, start_hour, end_hour, total_price, status, created_at, updated_at
		FROM bookings
		WHERE venue_id = ? AND date = ?
		ORDER BY start_hour, created_at`,
		venueID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings for date: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// CancelBooking moves a confirmed booking to cancelled, freeing its slot.
// Cancelling an already-cancelled or missing booking returns ErrNotFound;
// the row is never resurrected.
func (db *DB) CancelBooking(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.StatusCancelled, time.Now(), id, models.StatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOldBookings removes bookings whose date is older than the cutoff.
// Used by retention cleanup; returns the number of rows removed.
func (db *DB) DeleteOldBookings(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Format(models.DateLayout)
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old bookings: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.VenueID, &b.RequesterID, &b.Date, &b.StartHour, &b.EndHour,
		&b.TotalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
