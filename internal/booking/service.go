// Package booking is the reservation engine: it owns the only write path
// that can confirm a court-hour, plus the read projections around it
// (availability, quotes, receipts).
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"courtbook/internal/database"
	"courtbook/internal/events"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
	"courtbook/internal/pricing"
	"courtbook/internal/slots"
)

// Store is the persistence the engine needs: a read of confirmed bookings
// and an atomically-conditional insert. No availability pre-check belongs
// here; the insert itself decides the winner.
type Store interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListConfirmedBookings(ctx context.Context, venueID int64, date string) ([]models.Booking, error)
	CreateBookingExclusive(ctx context.Context, b *models.Booking) error
	CancelBooking(ctx context.Context, id string) error
}

// EventBus publishes booking lifecycle events.
type EventBus interface {
	Publish(event events.Event)
}

// Receipt is the human-facing view of a persisted booking, with the cost
// breakdown reconstructed from the stored total.
type Receipt struct {
	BookingID  string  `json:"booking_id"`
	VenueID    int64   `json:"venue_id"`
	VenueName  string  `json:"venue_name"`
	Date       string  `json:"date"`
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	SlotLabel  string  `json:"slot_label"`
	BaseFee    float64 `json:"base_fee"`
	ServiceFee float64 `json:"service_fee"`
	Total      float64 `json:"total"`
	Status     string  `json:"status"`
}

// Service wires the slot calendar, pricing and the store into the
// reservation operations exposed to transports.
type Service struct {
	store  Store
	calc   *pricing.Calculator
	bus    EventBus
	logger *zerolog.Logger
	now    func() time.Time
}

// NewService creates the reservation service.
func NewService(store Store, calc *pricing.Calculator, bus EventBus, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		calc:   calc,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// ListSlots returns the slot calendar for a venue and date with availability
// resolved against confirmed bookings. The projection is recomputed on every
// call; nothing is cached, because stale availability is exactly the bug the
// engine exists to prevent. If the booking list cannot be fetched the whole
// query fails (closed) rather than reporting everything free.
func (s *Service) ListSlots(ctx context.Context, venueID int64, date string) ([]slots.Slot, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidSlot, date)
	}

	venue, err := s.getVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}

	calendar := slots.Generate(venue.OpenHour, venue.CloseHour)
	if len(calendar) == 0 {
		return calendar, nil
	}

	bookings, err := s.store.ListConfirmedBookings(ctx, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return slots.Resolve(calendar, bookings), nil
}

// Quote prices one hour at the venue's current rate.
func (s *Service) Quote(ctx context.Context, venueID int64) (pricing.Quote, error) {
	venue, err := s.getVenue(ctx, venueID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.calc.QuoteFor(venue.HourlyPrice), nil
}

// Reserve atomically claims (venueID, date, startHour) for the requester.
// The hour is re-validated against the venue's current operating window
// server-side, the price is computed from the current rate and stored
// immutably, and the insert either creates exactly one confirmed booking or
// returns ErrSlotConflict. Conflicts are never retried here; re-picking a
// slot is the caller's decision.
//
// Past dates are rejected; a past hour on the current day is allowed, which
// keeps same-day use (and testing) simple.
func (s *Service) Reserve(ctx context.Context, venueID int64, date string, startHour int, requesterID string) (*models.Booking, error) {
	if strings.TrimSpace(requesterID) == "" {
		metrics.IncReservation(metrics.OutcomeUnauthorized)
		return nil, ErrUnauthorized
	}

	day, err := models.ParseDate(date)
	if err != nil {
		metrics.IncReservation(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidSlot, date)
	}

	today := s.now().Format(models.DateLayout)
	if day.Format(models.DateLayout) < today {
		metrics.IncReservation(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: date %s is in the past", ErrInvalidSlot, date)
	}

	venue, err := s.getVenue(ctx, venueID)
	if err != nil {
		metrics.IncReservation(metrics.OutcomeInvalid)
		return nil, err
	}
	if !venue.HourInWindow(startHour) {
		metrics.IncReservation(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: hour %d outside operating window [%d, %d)",
			ErrInvalidSlot, startHour, venue.OpenHour, venue.CloseHour)
	}

	quote := s.calc.QuoteFor(venue.HourlyPrice)
	b := &models.Booking{
		ID:          uuid.New().String(),
		VenueID:     venueID,
		RequesterID: requesterID,
		Date:        day.Format(models.DateLayout),
		StartHour:   startHour,
		EndHour:     startHour + 1,
		TotalPrice:  quote.Total,
	}

	// Single conditional write; the storage constraint picks the winner.
	if err := s.store.CreateBookingExclusive(ctx, b); err != nil {
		if errors.Is(err, database.ErrDuplicateSlot) {
			metrics.IncReservation(metrics.OutcomeConflict)
			s.logger.Info().
				Int64("venue_id", venueID).
				Str("date", b.Date).
				Int("start_hour", startHour).
				Str("requester_id", requesterID).
				Msg("reservation lost the slot")
			return nil, ErrSlotConflict
		}
		metrics.IncReservation(metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	metrics.IncReservation(metrics.OutcomeConfirmed)
	s.logger.Info().
		Str("booking_id", b.ID).
		Int64("venue_id", venueID).
		Str("date", b.Date).
		Int("start_hour", startHour).
		Float64("total", b.TotalPrice).
		Msg("booking confirmed")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:      events.TypeBookingConfirmed,
			BookingID: b.ID,
			VenueID:   venueID,
			Payload:   b,
		})
	}
	return b, nil
}

// Cancel moves a confirmed booking to cancelled, freeing its slot for a
// fresh reservation. The cancelled row itself is terminal.
func (s *Service) Cancel(ctx context.Context, bookingID string) error {
	err := s.store.CancelBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	metrics.IncBookingCancelled()
	s.logger.Info().Str("booking_id", bookingID).Msg("booking cancelled")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Type:      events.TypeBookingCancelled,
			BookingID: bookingID,
		})
	}
	return nil
}

// GetReceipt reconstructs the cost breakdown for a persisted booking by
// inverting the pricing formula on the stored total. The stored total is
// authoritative; the venue's live rate is only used for display names, never
// to recompute historical amounts.
func (s *Service) GetReceipt(ctx context.Context, bookingID string) (*Receipt, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	venueName := ""
	if venue, err := s.store.GetVenue(ctx, b.VenueID); err == nil {
		venueName = venue.Name
	}

	return s.buildReceipt(b, venueName), nil
}

func (s *Service) buildReceipt(b *models.Booking, venueName string) *Receipt {
	breakdown := s.calc.Breakdown(b.TotalPrice)
	return &Receipt{
		BookingID:  b.ID,
		VenueID:    b.VenueID,
		VenueName:  venueName,
		Date:       b.Date,
		StartHour:  b.StartHour,
		EndHour:    b.EndHour,
		SlotLabel:  slots.HourLabel(b.StartHour),
		BaseFee:    breakdown.BaseFee,
		ServiceFee: breakdown.ServiceFee,
		Total:      breakdown.Total,
		Status:     b.Status,
	}
}

func (s *Service) getVenue(ctx context.Context, venueID int64) (*models.Venue, error) {
	venue, err := s.store.GetVenue(ctx, venueID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrVenueNotFound, venueID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return venue, nil
}
