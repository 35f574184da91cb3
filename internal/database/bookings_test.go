package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/config"
	"courtbook/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "courtbook_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hourly := 500.0
	open, closed := 6, 22
	cfg := &config.VenuesConfig{
		Venues: []config.VenueConfig{
			{ID: 1, Name: "Riverside Padel", HourlyPrice: hourly, OpenHour: &open, CloseHour: &closed, IsActive: true},
		},
	}
	require.NoError(t, db.SyncVenuesFromConfig(context.Background(), cfg))
	return db
}

func testBooking(venueID int64, date string, hour int) *models.Booking {
	return &models.Booking{
		ID:          uuid.New().String(),
		VenueID:     venueID,
		RequesterID: "user-a",
		Date:        date,
		StartHour:   hour,
		EndHour:     hour + 1,
		TotalPrice:  550.00,
	}
}

func TestCreateBookingExclusive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("FirstWins", func(t *testing.T) {
		b := testBooking(1, "2026-02-01", 14)
		require.NoError(t, db.CreateBookingExclusive(ctx, b))
		assert.Equal(t, models.StatusConfirmed, b.Status)

		dup := testBooking(1, "2026-02-01", 14)
		dup.RequesterID = "user-b"
		err := db.CreateBookingExclusive(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicateSlot)

		bookings, err := db.ListConfirmedBookings(ctx, 1, "2026-02-01")
		require.NoError(t, err)
		assert.Len(t, bookings, 1)
		assert.Equal(t, "user-a", bookings[0].RequesterID)
	})

	t.Run("DifferentSlotsDoNotConflict", func(t *testing.T) {
		require.NoError(t, db.CreateBookingExclusive(ctx, testBooking(1, "2026-02-01", 15)))
		require.NoError(t, db.CreateBookingExclusive(ctx, testBooking(1, "2026-02-02", 14)))
	})

	t.Run("CancelledSlotCanBeRebooked", func(t *testing.T) {
		b := testBooking(1, "2026-02-03", 10)
		require.NoError(t, db.CreateBookingExclusive(ctx, b))
		require.NoError(t, db.CancelBooking(ctx, b.ID))

		rebooked := testBooking(1, "2026-02-03", 10)
		require.NoError(t, db.CreateBookingExclusive(ctx, rebooked))
		assert.NotEqual(t, b.ID, rebooked.ID, "freed slot gets a new booking id")

		// The cancelled row stays cancelled.
		old, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, old.Status)
	})
}

func TestCreateBookingExclusiveConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b := testBooking(1, "2026-02-10", 14)
			b.RequesterID = fmt.Sprintf("user-%d", n)
			errs[n] = db.CreateBookingExclusive(ctx, b)
		}(i)
	}
	wg.Wait()

	winners, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case assert.ErrorIs(t, err, ErrDuplicateSlot):
			conflicts++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent reserve may win")
	assert.Equal(t, attempts-1, conflicts)

	bookings, err := db.ListConfirmedBookings(ctx, 1, "2026-02-10")
	require.NoError(t, err)
	assert.Len(t, bookings, 1, "store must hold exactly one confirmed booking for the slot")
}

func TestCancelBooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		assert.ErrorIs(t, db.CancelBooking(ctx, uuid.New().String()), ErrNotFound)
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		b := testBooking(1, "2026-03-01", 9)
		require.NoError(t, db.CreateBookingExclusive(ctx, b))
		require.NoError(t, db.CancelBooking(ctx, b.ID))
		assert.ErrorIs(t, db.CancelBooking(ctx, b.ID), ErrNotFound)
	})
}

func TestGetVenue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		v, err := db.GetVenue(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Riverside Padel", v.Name)
		assert.Equal(t, 500.0, v.HourlyPrice)
		assert.Equal(t, 6, v.OpenHour)
		assert.Equal(t, 22, v.CloseHour)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := db.GetVenue(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeactivatedOnResync", func(t *testing.T) {
		hourly := 100.0
		open, closed := 8, 20
		cfg := &config.VenuesConfig{Venues: []config.VenueConfig{
			{ID: 2, Name: "Northside Tennis", HourlyPrice: hourly, OpenHour: &open, CloseHour: &closed, IsActive: true},
		}}
		require.NoError(t, db.SyncVenuesFromConfig(ctx, cfg))

		_, err := db.GetVenue(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound, "venue removed from config is delisted")

		v, err := db.GetVenue(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Northside Tennis", v.Name)
	})
}

func TestDeleteOldBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := testBooking(1, time.Now().AddDate(0, 0, -60).Format(models.DateLayout), 9)
	recent := testBooking(1, time.Now().AddDate(0, 0, 5).Format(models.DateLayout), 9)
	require.NoError(t, db.CreateBookingExclusive(ctx, old))
	require.NoError(t, db.CreateBookingExclusive(ctx, recent))

	deleted, err := db.DeleteOldBookings(ctx, 31*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = db.GetBooking(ctx, recent.ID)
	assert.NoError(t, err)
}
