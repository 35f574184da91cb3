// Package api exposes the reservation engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"courtbook/internal/booking"
	"courtbook/internal/idempotency"
	"courtbook/internal/models"
	"courtbook/internal/pricing"
)

// ExportStore is the extra persistence the export endpoint needs beyond the
// booking service: the full day's rows, cancelled included.
type ExportStore interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	ListBookingsForDate(ctx context.Context, venueID int64, date string) ([]models.Booking, error)
}

// Options configures the HTTP server.
type Options struct {
	Port          int
	APIKey        string // empty disables key checks
	RatePerSecond float64
	RateBurst     int
	Idempotency   *idempotency.Store // nil disables Idempotency-Key handling
}

// HTTPServer serves the reservation API.
type HTTPServer struct {
	server *http.Server
	svc    *booking.Service
	store  ExportStore
	calc   *pricing.Calculator
	idem   *idempotency.Store
	apiKey string
	log    *zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	ratePerS rate.Limit
	burst    int
}

// NewHTTPServer creates the API server with routes and middleware attached.
func NewHTTPServer(svc *booking.Service, store ExportStore, calc *pricing.Calculator, opts Options, logger *zerolog.Logger) *HTTPServer {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 40
	}

	s := &HTTPServer{
		svc:      svc,
		store:    store,
		calc:     calc,
		idem:     opts.Idempotency,
		apiKey:   opts.APIKey,
		log:      logger,
		limiters: make(map[string]*rate.Limiter),
		ratePerS: rate.Limit(opts.RatePerSecond),
		burst:    opts.RateBurst,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/venues/", s.routeVenues)
	mux.HandleFunc("/api/v1/bookings", s.handleCreateBooking)
	mux.HandleFunc("/api/v1/bookings/", s.routeBookings)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		if s.apiKey != "" && r.Header.Get("X-Api-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow applies a per-client token bucket.
func (s *HTTPServer) allow(ip string) bool {
	s.mu.Lock()
	lim, ok := s.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(s.ratePerS, s.burst)
		s.limiters[ip] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps engine errors onto HTTP statuses. The conflict case
// stays distinct from validation so clients can tell "pick another slot" from
// "fix your request".
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot already booked")
	case errors.Is(err, booking.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "requester identity required")
	case errors.Is(err, booking.ErrVenueNotFound):
		writeError(w, http.StatusNotFound, "venue not found")
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, booking.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
