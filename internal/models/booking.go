package models

import "time"

// Booking statuses. A booking is created confirmed and may only ever move
// to cancelled; both states are terminal for the row itself. Re-booking a
// freed slot produces a new booking with a new ID.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// DateLayout is the wire and storage format for booking dates. Dates are
// venue-local civil dates; no time zone is attached on purpose.
const DateLayout = "2006-01-02"

// Booking represents one confirmed (or later cancelled) court-hour.
// Date, StartHour and TotalPrice are write-once: the price charged is the
// venue's rate at reservation time and never follows later rate changes.
type Booking struct {
	ID          string    `json:"id"`
	VenueID     int64     `json:"venue_id"`
	RequesterID string    `json:"requester_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	StartHour   int       `json:"start_hour"`
	EndHour     int       `json:"end_hour"` // always start_hour + 1
	TotalPrice  float64   `json:"total_price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsConfirmed reports whether the booking currently holds its slot.
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// SlotKey identifies the court-hour a booking occupies. At most one
// confirmed booking may exist per key.
type SlotKey struct {
	VenueID   int64
	Date      string
	StartHour int
}

// Key returns the slot this booking occupies.
func (b *Booking) Key() SlotKey {
	return SlotKey{VenueID: b.VenueID, Date: b.Date, StartHour: b.StartHour}
}

// ParseDate validates a civil date string in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
