package models

import "time"

// Venue represents a bookable sports venue. The reservation engine only
// reads venues; the catalog itself is owned by an external collaborator
// and mirrored into the local store from configs/venues.yaml.
type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	HourlyPrice float64   `json:"hourly_price"`
	OpenHour    int       `json:"open_hour"`  // 0-23
	CloseHour   int       `json:"close_hour"` // 0-23, bookable window is [open, close)
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasBookableHours reports whether the venue offers any slots at all.
// A venue with open >= close simply has an empty calendar; it is not an error.
func (v *Venue) HasBookableHours() bool {
	return v.OpenHour < v.CloseHour
}

// HourInWindow reports whether an hour falls inside the operating window.
func (v *Venue) HourInWindow(hour int) bool {
	return hour >= v.OpenHour && hour < v.CloseHour
}
