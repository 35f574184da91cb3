package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/config"
	"courtbook/internal/models"
)

// GetVenue returns a venue by ID. Inactive venues are treated as absent so
// the engine never sells hours at a delisted court.
func (db *DB) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	var v models.Venue
	var address sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, address, hourly_price, open_hour, close_hour, is_active, created_at, updated_at
		FROM venues
		WHERE id = ? AND is_active = 1`, id,
	).Scan(&v.ID, &v.Name, &address, &v.HourlyPrice, &v.OpenHour, &v.CloseHour, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get venue %d: %w", id, err)
	}
	if address.Valid {
		v.Address = address.String
	}
	return &v, nil
}

// ListActiveVenues returns all active venues ordered by ID.
func (db *DB) ListActiveVenues(ctx context.Context) ([]models.Venue, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, address, hourly_price, open_hour, close_hour, is_active, created_at, updated_at
		FROM venues WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var v models.Venue
		var address sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &address, &v.HourlyPrice, &v.OpenHour, &v.CloseHour, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if address.Valid {
			v.Address = address.String
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// SyncVenuesFromConfig applies venues.yaml to the database. It upserts
// configured venues and marks missing ones inactive. Existing bookings are
// untouched: a price change never rewrites history.
func (db *DB) SyncVenuesFromConfig(ctx context.Context, cfg *config.VenuesConfig) error {
	if cfg == nil {
		return fmt.Errorf("venues config is nil")
	}

	now := time.Now()
	seen := make(map[int64]struct{})

	for _, v := range cfg.Venues {
		isActive := 0
		if v.IsActive {
			isActive = 1
		}

		openHour, closeHour := 0, 0
		if v.OpenHour != nil {
			openHour = *v.OpenHour
		}
		if v.CloseHour != nil {
			closeHour = *v.CloseHour
		}

		// Preserve created_at if the venue already exists.
		_, err := db.ExecContext(ctx, `
			INSERT INTO venues (id, name, address, hourly_price, open_hour, close_hour, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT created_at FROM venues WHERE id = ?), ?), ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				address = excluded.address,
				hourly_price = excluded.hourly_price,
				open_hour = excluded.open_hour,
				close_hour = excluded.close_hour,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			v.ID, v.Name, v.Address, v.HourlyPrice, openHour, closeHour, isActive, v.ID, now, now,
		)
		if err != nil {
			return fmt.Errorf("sync venue %d: %w", v.ID, err)
		}
		seen[v.ID] = struct{}{}
	}

	// Deactivate venues that disappeared from config.
	rows, err := db.QueryContext(ctx, `SELECT id FROM venues`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if _, err := db.ExecContext(ctx, `UPDATE venues SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
			return fmt.Errorf("deactivate venue %d: %w", id, err)
		}
	}
	return rows.Err()
}
