// Package slots derives the bookable hourly calendar for a venue and a date.
// Slots are values, never stored: they are recomputed from the venue's
// operating hours on every call.
package slots

import (
	"sort"
	"time"

	"courtbook/internal/models"
)

// Slot is one bookable one-hour window.
type Slot struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Label     string `json:"label"` // 12-hour clock rendering, e.g. "2:00 PM"
	Available bool   `json:"available"`
}

// Generate returns the full slot calendar for an operating window [open, close),
// in ascending hour order. A window with open >= close yields an empty
// calendar, not an error. Availability is left true; use Resolve to overlay
// existing bookings.
func Generate(openHour, closeHour int) []Slot {
	if openHour >= closeHour {
		return []Slot{}
	}

	result := make([]Slot, 0, closeHour-openHour)
	for hour := openHour; hour < closeHour; hour++ {
		result = append(result, Slot{
			StartHour: hour,
			EndHour:   hour + 1,
			Label:     HourLabel(hour),
			Available: true,
		})
	}
	return result
}

// Resolve classifies each slot against the confirmed bookings for the same
// venue and date. It is a pure projection: advisory for display only, never
// a reservation. Cancelled bookings do not block a slot.
func Resolve(calendar []Slot, bookings []models.Booking) []Slot {
	taken := make(map[int]bool, len(bookings))
	for _, b := range bookings {
		if b.IsConfirmed() {
			taken[b.StartHour] = true
		}
	}

	result := make([]Slot, len(calendar))
	for i, s := range calendar {
		s.Available = !taken[s.StartHour]
		result[i] = s
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartHour < result[j].StartHour
	})
	return result
}

// HourLabel renders an hour of day on a 12-hour clock. Formatting only;
// nothing downstream depends on the label.
func HourLabel(hour int) string {
	t := time.Date(2000, time.January, 1, hour, 0, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
