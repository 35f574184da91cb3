package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"courtbook/internal/api"
	"courtbook/internal/booking"
	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/events"
	"courtbook/internal/idempotency"
	"courtbook/internal/metrics"
	"courtbook/internal/models"
	"courtbook/internal/pricing"
	"courtbook/internal/retention"
	"courtbook/internal/sheets"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("COURTBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial load + hot reload of the venue catalog
	if err := config.WatchVenues(ctx, cfg.VenuesConfigPath, 30*time.Second, func(updated *config.VenuesConfig) {
		if updated == nil {
			return
		}
		if err := db.SyncVenuesFromConfig(ctx, updated); err != nil {
			logger.Error().Err(err).Msg("failed to apply venues config")
			return
		}
		logger.Info().Time("reloaded_at", time.Now()).Msg("venues config reloaded")
	}); err != nil {
		logger.Fatal().Err(err).Msg("venues config load failed")
	}

	var rdb *redis.Client
	var idem *idempotency.Store
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL())
	}

	calc := pricing.NewCalculator(cfg.ServiceFeeRate())
	bus := events.NewEventBus()
	svc := booking.NewService(db, calc, bus, &logger)

	if cfg.Sheets.Enabled {
		if err := subscribeSheetsMirror(ctx, cfg, db, bus, &logger); err != nil {
			logger.Error().Err(err).Msg("sheets mirror disabled")
		}
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		go startBackupLoop(ctx, db, cfg, &logger)
	}

	retentionCfg := retention.DefaultConfig()
	if cfg.Booking.HistoryRetentionDays > 0 {
		retentionCfg.RetentionDays = cfg.Booking.HistoryRetentionDays
	}
	sweeper := retention.NewSweeper(retentionCfg, db, &logger)
	go sweeper.Start(ctx)

	server := api.NewHTTPServer(svc, db, calc, api.Options{
		Port:          cfg.Server.Port,
		APIKey:        cfg.Server.APIKey,
		RatePerSecond: cfg.Booking.RateLimitPerSecond,
		RateBurst:     cfg.Booking.RateLimitBurst,
		Idempotency:   idem,
	}, &logger)

	logger.Info().Msg("courtbook started")
	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("API server error")
	}
}

// subscribeSheetsMirror forwards booking lifecycle events to a spreadsheet.
// Mirror failures are logged, never surfaced to the requester.
func subscribeSheetsMirror(ctx context.Context, cfg *config.Config, db *database.DB, bus *events.EventBus, logger *zerolog.Logger) error {
	mirror, err := sheets.NewSheetsService(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, *logger)
	if err != nil {
		return err
	}

	venueName := func(id int64) string {
		venue, err := db.GetVenue(ctx, id)
		if err != nil {
			return ""
		}
		return venue.Name
	}

	bus.Subscribe(events.TypeBookingConfirmed, func(e events.Event) error {
		b, ok := e.Payload.(*models.Booking)
		if !ok {
			return nil
		}
		if err := mirror.AppendBooking(ctx, b, venueName(b.VenueID)); err != nil {
			logger.Error().Err(err).Str("booking_id", b.ID).Msg("sheets append failed")
		}
		return nil
	})

	bus.Subscribe(events.TypeBookingCancelled, func(e events.Event) error {
		b, err := db.GetBooking(ctx, e.BookingID)
		if err != nil {
			return nil
		}
		if err := mirror.MarkCancelled(ctx, b, venueName(b.VenueID)); err != nil {
			logger.Error().Err(err).Str("booking_id", b.ID).Msg("sheets cancel update failed")
		}
		return nil
	})

	logger.Info().Str("spreadsheet", cfg.Sheets.SpreadsheetID).Msg("sheets mirror enabled")
	return nil
}

func startBackupLoop(ctx context.Context, db *database.DB, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Backup.Path == "" {
		cfg.Backup.Path = "backups"
	}
	if cfg.Backup.IntervalHours <= 0 {
		cfg.Backup.IntervalHours = 24
	}
	if cfg.Backup.RetentionDays <= 0 {
		cfg.Backup.RetentionDays = 14
	}

	if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
	retention := time.Duration(cfg.Backup.RetentionDays) * 24 * time.Hour

	// Run first backup after a short delay
	select {
	case <-time.After(1 * time.Minute):
		runBackupTask(db, cfg, retention, logger)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runBackupTask(db, cfg, retention, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runBackupTask(db *database.DB, cfg *config.Config, retention time.Duration, logger *zerolog.Logger) {
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(cfg.Backup.Path, fmt.Sprintf("courtbook_%s.db", timestamp))

	logger.Info().Str("path", dest).Msg("starting database backup")
	if err := db.Backup(cfg.Database.Path, dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
	} else {
		logger.Info().Msg("backup completed successfully")
	}

	deleted, err := db.CleanupBackups(cfg.Backup.Path, retention)
	if err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
