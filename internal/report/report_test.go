package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"courtbook/internal/models"
	"courtbook/internal/pricing"
)

func TestWriteDayReport(t *testing.T) {
	venue := &models.Venue{ID: 1, Name: "Riverside Padel", HourlyPrice: 500}
	calc := pricing.NewCalculator(0.10)
	created := time.Date(2026, time.January, 20, 10, 30, 0, 0, time.UTC)

	bookings := []models.Booking{
		{
			ID: "b-1", VenueID: 1, RequesterID: "user-a", Date: "2026-02-01",
			StartHour: 14, EndHour: 15, TotalPrice: 550.00,
			Status: models.StatusConfirmed, CreatedAt: created,
		},
		{
			ID: "b-2", VenueID: 1, RequesterID: "user-b", Date: "2026-02-01",
			StartHour: 16, EndHour: 17, TotalPrice: 550.00,
			Status: models.StatusCancelled, CreatedAt: created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDayReport(&buf, venue, "2026-02-01", bookings, calc))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two bookings")

	assert.Equal(t, "Booking ID", rows[0][0])
	assert.Equal(t, "b-1", rows[1][0])
	assert.Equal(t, "2:00 PM - 3:00 PM", rows[1][3])
	assert.Equal(t, "550", rows[1][6])
	assert.Equal(t, models.StatusCancelled, rows[2][7])
}

func TestWriteDayReportEmpty(t *testing.T) {
	venue := &models.Venue{ID: 1, Name: "Riverside Padel"}
	var buf bytes.Buffer
	require.NoError(t, WriteDayReport(&buf, venue, "2026-02-01", nil, pricing.NewCalculator(0.10)))
	assert.NotZero(t, buf.Len())
}

func TestWriteDayReportLongVenueName(t *testing.T) {
	venue := &models.Venue{ID: 1, Name: "The Extraordinarily Long Riverside Padel And Racquet Centre"}
	var buf bytes.Buffer
	require.NoError(t, WriteDayReport(&buf, venue, "2026-02-01", nil, pricing.NewCalculator(0.10)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	// Excel rejects sheet names over 31 chars; the writer must truncate.
	assert.LessOrEqual(t, len(f.GetSheetName(0)), 31)
}
