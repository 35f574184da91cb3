// Package database is the sqlite-backed booking store. The one invariant it
// owns: at most one confirmed booking per (venue_id, date, start_hour),
// enforced with a partial unique index so concurrent reservations collapse
// into a single winner at the storage layer.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Storage-level sentinel errors. The booking service maps these onto the
// user-facing taxonomy.
var (
	// ErrDuplicateSlot means a confirmed booking already holds the slot.
	ErrDuplicateSlot = errors.New("slot already booked")
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// DB wraps sql.DB for the reservation engine.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Venues, mirrored from venues.yaml
		`CREATE TABLE IF NOT EXISTS venues (
            id INTEGER PRIMARY KEY,
            name TEXT UNIQUE NOT NULL,
            address TEXT,
            hourly_price REAL NOT NULL DEFAULT 0,
            open_hour INTEGER NOT NULL DEFAULT 0,
            close_hour INTEGER NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		// Bookings. date is a venue-local civil date (YYYY-MM-DD).
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            venue_id INTEGER NOT NULL,
            requester_id TEXT NOT NULL,
            date TEXT NOT NULL,
            start_hour INTEGER NOT NULL,
            end_hour INTEGER NOT NULL,
            total_price REAL NOT NULL,
            status TEXT NOT NULL DEFAULT 'confirmed',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (venue_id) REFERENCES venues(id)
        )`,

		// The core uniqueness constraint: only confirmed bookings occupy a
		// slot, so cancelled rows free the triple for a fresh booking.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_slot
            ON bookings(venue_id, date, start_hour)
            WHERE status = 'confirmed'`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_venue_date ON bookings(venue_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_requester ON bookings(requester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_venues_active ON venues(is_active)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
