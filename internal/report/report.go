// Package report builds day-level booking exports for venue operators.
package report

import (
	"fmt"
	"io"

	"courtbook/internal/models"
	"courtbook/internal/pricing"
	"courtbook/internal/slots"
)

var dayReportColumns = []string{
	"Booking ID", "Requester", "Date", "Slot",
	"Base fee", "Service fee", "Total", "Status", "Created",
}

// WriteDayReport renders one row per booking for a venue/date into an xlsx
// document. The fee breakdown is reconstructed from each booking's stored
// total, so historical rows keep their original amounts regardless of the
// venue's current rate.
func WriteDayReport(w io.Writer, venue *models.Venue, date string, bookings []models.Booking, calc *pricing.Calculator) error {
	writer := newSheetWriter(fmt.Sprintf("%s %s", venue.Name, date))
	defer writer.close()

	if err := writer.writeHeader(dayReportColumns); err != nil {
		return err
	}

	for i := range bookings {
		if err := writer.writeRow(bookingRowValues(&bookings[i], calc)); err != nil {
			return fmt.Errorf("write row for booking %s: %w", bookings[i].ID, err)
		}
	}

	return writer.save(w)
}

func bookingRowValues(b *models.Booking, calc *pricing.Calculator) []interface{} {
	breakdown := calc.Breakdown(b.TotalPrice)
	return []interface{}{
		b.ID,
		b.RequesterID,
		b.Date,
		fmt.Sprintf("%s - %s", slots.HourLabel(b.StartHour), slots.HourLabel(b.EndHour)),
		breakdown.BaseFee,
		breakdown.ServiceFee,
		breakdown.Total,
		b.Status,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
