package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"courtbook/internal/booking"
	"courtbook/internal/idempotency"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
)

// CreateBookingRequest is the request body for POST /api/v1/bookings.
type CreateBookingRequest struct {
	VenueID   int64  `json:"venue_id"`
	Date      string `json:"date"` // Format: YYYY-MM-DD
	StartHour int    `json:"start_hour"`
}

// CreateBookingResponse is the confirmed reservation.
type CreateBookingResponse struct {
	BookingID  string  `json:"booking_id"`
	VenueID    int64   `json:"venue_id"`
	Date       string  `json:"date"`
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
}

// handleCreateBooking reserves a slot.
// POST /api/v1/bookings
//
// The requester is identified by the X-Requester-Id header. An optional
// Idempotency-Key header makes retries safe: the first outcome is stored and
// replayed, so a client retrying after a timeout never sees a spurious
// conflict for its own booking.
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" && s.idem != nil {
		stored, err := s.idem.Claim(r.Context(), idemKey)
		if errors.Is(err, idempotency.ErrInFlight) {
			writeError(w, http.StatusConflict, "request with this idempotency key is in flight")
			return
		}
		if err != nil {
			s.log.Error().Err(err).Msg("idempotency claim failed")
			writeError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(stored.Status)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.releaseIdem(r, idemKey)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	requesterID := strings.TrimSpace(r.Header.Get("X-Requester-Id"))

	b, err := s.svc.Reserve(r.Context(), req.VenueID, req.Date, req.StartHour, requesterID)
	if err != nil {
		// A conflict is a real outcome worth replaying; validation errors
		// release the key so a corrected retry can proceed.
		if errors.Is(err, booking.ErrSlotConflict) {
			s.storeIdemOutcome(r, idemKey, http.StatusConflict, map[string]string{"error": "slot already booked"})
		} else {
			s.releaseIdem(r, idemKey)
		}
		writeServiceError(w, err)
		return
	}

	resp := CreateBookingResponse{
		BookingID:  b.ID,
		VenueID:    b.VenueID,
		Date:       b.Date,
		StartHour:  b.StartHour,
		EndHour:    b.EndHour,
		TotalPrice: b.TotalPrice,
		Status:     b.Status,
	}
	s.storeIdemOutcome(r, idemKey, http.StatusCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// routeBookings dispatches /api/v1/bookings/{id}/{action}.
func (s *HTTPServer) routeBookings(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	bookingID := parts[0]
	switch parts[1] {
	case "receipt":
		s.handleBookingReceipt(w, r, bookingID)
	case "cancel":
		s.handleCancelBooking(w, r, bookingID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleBookingReceipt returns the stored booking with its fee breakdown.
// GET /api/v1/bookings/{id}/receipt
func (s *HTTPServer) handleBookingReceipt(w http.ResponseWriter, r *http.Request, bookingID string) {
	metrics.IncHTTP("booking_receipt")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	receipt, err := s.svc.GetReceipt(r.Context(), bookingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleCancelBooking frees a confirmed slot.
// POST /api/v1/bookings/{id}/cancel
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request, bookingID string) {
	metrics.IncHTTP("cancel_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.svc.Cancel(r.Context(), bookingID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id": bookingID,
		"status":     models.StatusCancelled,
	})
}

func (s *HTTPServer) storeIdemOutcome(r *http.Request, key string, status int, v any) {
	if key == "" || s.idem == nil {
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return
	}
	if err := s.idem.StoreResponse(r.Context(), key, status, buf.Bytes()); err != nil {
		s.log.Error().Err(err).Msg("failed to store idempotency response")
	}
}

func (s *HTTPServer) releaseIdem(r *http.Request, key string) {
	if key == "" || s.idem == nil {
		return
	}
	s.idem.Release(r.Context(), key)
}
