package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"courtbook/internal/metrics"
	"courtbook/internal/models"
	"courtbook/internal/report"
	"courtbook/internal/slots"
)

// SlotsResponse is the availability calendar for one venue and date.
type SlotsResponse struct {
	VenueID int64        `json:"venue_id"`
	Date    string       `json:"date"`
	Slots   []slots.Slot `json:"slots"`
}

// routeVenues dispatches /api/v1/venues/{id}/{action} by hand.
func (s *HTTPServer) routeVenues(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/venues/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	venueID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || venueID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid venue id")
		return
	}

	action := strings.Join(parts[1:], "/")
	switch action {
	case "slots":
		s.handleVenueSlots(w, r, venueID)
	case "quote":
		s.handleVenueQuote(w, r, venueID)
	case "bookings/export":
		s.handleVenueExport(w, r, venueID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleVenueSlots returns the slot calendar with availability.
// GET /api/v1/venues/{id}/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleVenueSlots(w http.ResponseWriter, r *http.Request, venueID int64) {
	metrics.IncHTTP("venue_slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required; expected YYYY-MM-DD")
		return
	}

	calendar, err := s.svc.ListSlots(r.Context(), venueID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SlotsResponse{VenueID: venueID, Date: date, Slots: calendar})
}

// handleVenueQuote prices one hour at the venue's current rate.
// GET /api/v1/venues/{id}/quote
func (s *HTTPServer) handleVenueQuote(w http.ResponseWriter, r *http.Request, venueID int64) {
	metrics.IncHTTP("venue_quote")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	quote, err := s.svc.Quote(r.Context(), venueID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// handleVenueExport streams an xlsx day report for venue staff.
// GET /api/v1/venues/{id}/bookings/export?date=YYYY-MM-DD
func (s *HTTPServer) handleVenueExport(w http.ResponseWriter, r *http.Request, venueID int64) {
	metrics.IncHTTP("venue_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if _, err := models.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	venue, err := s.store.GetVenue(r.Context(), venueID)
	if err != nil {
		writeError(w, http.StatusNotFound, "venue not found")
		return
	}

	bookings, err := s.store.ListBookingsForDate(r.Context(), venueID, date)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings_%d_%s.xlsx"`, venueID, date))

	if err := report.WriteDayReport(w, venue, date, bookings, s.calc); err != nil {
		// Headers are already out; log and drop the connection.
		s.log.Error().Err(err).Int64("venue_id", venueID).Str("date", date).Msg("export failed")
	}
}
