// Package sheets mirrors confirmed bookings into a Google Sheet so venue
// staff without database access can see the day's schedule.
package sheets

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"courtbook/internal/models"
)

// SheetsService appends booking rows to a spreadsheet and tracks where each
// booking landed so cancellations can mark the right row.
type SheetsService struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        zerolog.Logger

	mu       sync.RWMutex
	rowCache map[string]int
}

// NewSheetsService creates a service authenticated with a service-account
// credentials file.
func NewSheetsService(ctx context.Context, credentialsPath, spreadsheetID, sheetName string, logger zerolog.Logger) (*SheetsService, error) {
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	if sheetName == "" {
		sheetName = "Bookings"
	}
	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.With().Str("component", "sheets").Logger(),
		rowCache:      make(map[string]int),
	}, nil
}

var headerRow = []interface{}{
	"Booking ID", "Venue", "Requester", "Date", "Start", "End", "Total", "Status", "Created",
}

// AppendBooking writes one booking to the end of the sheet.
func (s *SheetsService) AppendBooking(ctx context.Context, b *models.Booking, venueName string) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(b, venueName)},
	}

	resp, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append booking %s: %w", b.ID, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		if row, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(b.ID, row)
		}
	}

	s.logger.Debug().Str("booking_id", b.ID).Msg("booking mirrored to sheet")
	return nil
}

// MarkCancelled updates the status cell of a previously appended booking.
// When the row is not cached (service restarted since the append) the
// cancellation is appended as a new row instead.
func (s *SheetsService) MarkCancelled(ctx context.Context, b *models.Booking, venueName string) error {
	row, ok := s.getCachedRow(b.ID)
	if !ok {
		return s.AppendBooking(ctx, b, venueName)
	}

	// Status lives in column H of the booking row.
	rng := fmt.Sprintf("%s!H%d", s.sheetName, row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{models.StatusCancelled}}}

	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark booking %s cancelled: %w", b.ID, err)
	}

	// The row is terminal now; nothing will update it again.
	s.deleteCachedRow(b.ID)
	return nil
}

// SyncBookings rewrites the sheet from scratch with the given bookings.
// Cancelled rows are dropped; the cache is rebuilt to match the new layout.
func (s *SheetsService) SyncBookings(ctx context.Context, bookings []models.Booking, venueNames map[int64]string) error {
	active := s.filterActiveBookings(bookings)

	values := [][]interface{}{headerRow}
	for i := range active {
		values = append(values, bookingRowValues(&active[i], venueNames[active[i].VenueID]))
	}

	clearReq := &sheets.ClearValuesRequest{}
	if _, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetName, clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.ClearCache()
	for i := range active {
		// Row 1 is the header, data starts at row 2.
		s.setCachedRow(active[i].ID, i+2)
	}

	s.logger.Info().Int("rows", len(active)).Msg("sheet resynced")
	return nil
}

// filterActiveBookings drops cancelled bookings from the sync set.
func (s *SheetsService) filterActiveBookings(bookings []models.Booking) []models.Booking {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.StatusCancelled {
			active = append(active, b)
		}
	}
	return active
}

func bookingRowValues(b *models.Booking, venueName string) []interface{} {
	return []interface{}{
		b.ID,
		venueName,
		b.RequesterID,
		b.Date,
		fmt.Sprintf("%02d:00", b.StartHour),
		fmt.Sprintf("%02d:00", b.EndHour),
		b.TotalPrice,
		b.Status,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// rowFromRange extracts the row number from an A1-notation range like
// "Bookings!A7:I7".
func rowFromRange(rng string) (int, bool) {
	start := len(rng)
	for start > 0 && rng[start-1] >= '0' && rng[start-1] <= '9' {
		start--
	}
	if start == len(rng) {
		return 0, false
	}
	row := 0
	for _, c := range rng[start:] {
		row = row*10 + int(c-'0')
	}
	return row, true
}

func (s *SheetsService) getCachedRow(bookingID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rowCache[bookingID]
	return row, ok
}

func (s *SheetsService) setCachedRow(bookingID string, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[bookingID] = row
}

func (s *SheetsService) deleteCachedRow(bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rowCache, bookingID)
}

// ClearCache drops all cached row positions.
func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache = make(map[string]int)
}
