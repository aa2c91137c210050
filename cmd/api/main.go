package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/api"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/export"
	"maitred/internal/google"
	"maitred/internal/integrations/loyalty"
	"maitred/internal/logging"
	"maitred/internal/metrics"
	"maitred/internal/repository"
	"maitred/internal/schedule"
	"maitred/internal/service"
	"maitred/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	settingsCache := initSettingsCache(cfg, redisClient, &logger)
	eventBus := events.NewEventBus()
	subscribeEventLog(eventBus, &logger)

	loyaltyClient := initLoyalty(cfg, &logger)
	publisher := initSheetsPublisher(ctx, cfg, &logger)

	w := worker.New(worker.Deps{
		Tasks:        db,
		Reservations: db,
		Shifts:       db,
		Loyalty:      loyaltyClient,
		Publisher:    publisher,
		Redis:        redisClient,
	}, worker.RetryPolicy{MaxRetries: cfg.Worker.MaxRetries},
		parseDuration(cfg.Worker.PollInterval, 5*time.Second),
		cfg.Worker.BatchSize, &logger)
	go w.Start(ctx)

	settingsService := service.NewSettingsService(db, settingsCache, &logger)
	if err := applyClosures(ctx, settingsService, &logger); err != nil {
		return err
	}
	reservationService := service.NewReservationService(db, settingsService, eventBus, w, &logger)
	shiftService := service.NewShiftService(db, eventBus, &logger)
	statsService := service.NewStatsService(db, db, &logger)
	exporter := export.NewExporter(db, db, cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	if publisher != nil {
		go runSchedulePublishLoop(ctx, cfg, w, &logger)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewServer(cfg.API, api.Deps{
		Reservations: reservationService,
		Shifts:       shiftService,
		Settings:     settingsService,
		Stats:        statsService,
		Exporter:     exporter,
	}, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()
	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSettingsCache layers redis over memory when redis is up, so a redis
// outage degrades to per-instance caching instead of hammering sqlite.
func initSettingsCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SettingsCache {
	ttl := time.Duration(cfg.Booking.SettingsCacheTTLSec) * time.Second
	memory := repository.NewMemorySettingsCache(ttl)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverSettingsCache(repository.NewRedisSettingsCache(redisClient, ttl), memory, logger)
}

func initLoyalty(cfg *config.Config, logger *zerolog.Logger) domain.LoyaltyClient {
	if !cfg.Loyalty.Enabled {
		return nil
	}
	timeout := parseDuration(cfg.Loyalty.Timeout, 10*time.Second)
	logger.Info().Str("base_url", cfg.Loyalty.BaseURL).Msg("loyalty client enabled")
	return loyalty.NewClient(cfg.Loyalty.BaseURL, cfg.Loyalty.APIKey, timeout, logger)
}

func initSheetsPublisher(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.SchedulePublisher {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.ScheduleSpreadSheetID == "" {
		return nil
	}

	publisher, err := google.NewSheetsPublisher(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.ScheduleSpreadSheetID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := publisher.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return publisher
}

// runSchedulePublishLoop enqueues a sheet sync of the coming week on a fixed
// interval. The worker owns retries, so a failed sync never blocks this loop.
func runSchedulePublishLoop(ctx context.Context, cfg *config.Config, enqueuer domain.TaskEnqueuer, logger *zerolog.Logger) {
	interval := parseDuration(cfg.Google.SchedulePublishInterval, 15*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			from := schedule.FormatDate(now)
			to := schedule.FormatDate(now.AddDate(0, 0, 7))
			if err := enqueuer.EnqueueScheduleSync(ctx, from, to); err != nil {
				logger.Error().Err(err).Msg("enqueue schedule sync")
			}
		}
	}
}

// applyClosures reads the optional closures file and blocks the listed dates
// and slots. Blocking is idempotent, so re-applying on every boot is safe.
func applyClosures(ctx context.Context, settings domain.SettingsService, logger *zerolog.Logger) error {
	closuresPath := os.Getenv("CLOSURES_PATH")
	if closuresPath == "" {
		closuresPath = "configs/closures.yaml"
	}
	data, err := os.ReadFile(closuresPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read closures: %w", err)
	}

	var closures struct {
		BlockedDates []string `yaml:"blocked_dates"`
		BlockedSlots []struct {
			Date string `yaml:"date"`
			Time string `yaml:"time"`
		} `yaml:"blocked_slots"`
	}
	if err := yaml.Unmarshal(data, &closures); err != nil {
		return fmt.Errorf("parse closures: %w", err)
	}

	for _, date := range closures.BlockedDates {
		if _, err := settings.BlockDate(ctx, date); err != nil {
			return fmt.Errorf("block date %s: %w", date, err)
		}
	}
	for _, slot := range closures.BlockedSlots {
		if _, err := settings.BlockSlot(ctx, slot.Date, slot.Time); err != nil {
			return fmt.Errorf("block slot %s %s: %w", slot.Date, slot.Time, err)
		}
	}

	logger.Info().Int("dates", len(closures.BlockedDates)).Int("slots", len(closures.BlockedSlots)).
		Str("path", closuresPath).Msg("closures applied")
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
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

// subscribeEventLog is the default subscriber: every domain event lands in the
// structured log so notification senders can be layered on later.
func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	logEvent := func(event *events.Event) error {
		logger.Info().Str("event_type", event.Type).RawJSON("payload", event.Payload).Msg("domain event")
		return nil
	}

	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationConfirmed,
		events.EventReservationSeated,
		events.EventReservationCompleted,
		events.EventReservationCancelled,
		events.EventReservationNoShow,
		events.EventReservationModified,
		events.EventShiftCreated,
		events.EventShiftUpdated,
		events.EventShiftCancelled,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}
