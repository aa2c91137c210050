// Package api is the HTTP surface of the scheduling engine: reservations,
// shifts, capacity settings, stats and exports.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"maitred/internal/config"
	"maitred/internal/domain"
	"maitred/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ScheduleExporter produces an xlsx file for a date range and returns its path.
type ScheduleExporter interface {
	ExportSchedule(ctx context.Context, fromDate, toDate string) (string, error)
}

type Server struct {
	cfg          config.APIConfig
	reservations domain.ReservationService
	shifts       domain.ShiftService
	settings     domain.SettingsService
	stats        domain.StatsService
	exporter     ScheduleExporter
	auth         *HTTPAuth
	server       *http.Server
	logger       *zerolog.Logger
}

type Deps struct {
	Reservations domain.ReservationService
	Shifts       domain.ShiftService
	Settings     domain.SettingsService
	Stats        domain.StatsService
	Exporter     ScheduleExporter
}

func NewServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		reservations: deps.Reservations,
		shifts:       deps.Shifts,
		settings:     deps.Settings,
		stats:        deps.Stats,
		exporter:     deps.Exporter,
		auth:         NewHTTPAuth(cfg),
		logger:       logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}
	return s
}

// Handler builds the full route table. Exposed separately so tests can drive
// the router without a listening socket.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	// Router-level middleware runs after route matching, so the path template
	// is available for metrics labels.
	r.Use(s.loggingMiddleware)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.auth.Middleware)

	api.HandleFunc("/availability", s.handleAvailability).Methods(http.MethodGet)

	api.HandleFunc("/reservations", s.handleCreateReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations", s.handleListReservations).Methods(http.MethodGet)
	api.HandleFunc("/reservations/code/{code}", s.handleGetReservationByCode).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id:[0-9]+}", s.handleGetReservation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id:[0-9]+}", s.handleModifyReservation).Methods(http.MethodPatch)
	api.HandleFunc("/reservations/{id:[0-9]+}/confirm", s.handleConfirmReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/checkin", s.handleCheckInReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/complete", s.handleCompleteReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/cancel", s.handleCancelReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/no-show", s.handleReservationNoShow).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}/notes", s.handleAddNote).Methods(http.MethodPost)

	api.HandleFunc("/shifts", s.handleCreateShift).Methods(http.MethodPost)
	api.HandleFunc("/shifts", s.handleListShifts).Methods(http.MethodGet)
	api.HandleFunc("/shifts/conflicts", s.handleShiftConflicts).Methods(http.MethodGet)
	api.HandleFunc("/shifts/{id:[0-9]+}", s.handleGetShift).Methods(http.MethodGet)
	api.HandleFunc("/shifts/{id:[0-9]+}", s.handleUpdateShift).Methods(http.MethodPatch)
	api.HandleFunc("/shifts/{id:[0-9]+}", s.handleDeleteShift).Methods(http.MethodDelete)
	api.HandleFunc("/shifts/{id:[0-9]+}/clock-in", s.handleClockIn).Methods(http.MethodPost)
	api.HandleFunc("/shifts/{id:[0-9]+}/clock-out", s.handleClockOut).Methods(http.MethodPost)
	api.HandleFunc("/shifts/{id:[0-9]+}/cancel", s.handleCancelShift).Methods(http.MethodPost)
	api.HandleFunc("/shifts/{id:[0-9]+}/no-show", s.handleShiftNoShow).Methods(http.MethodPost)

	api.HandleFunc("/settings/capacity", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/capacity", s.handleUpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings/capacity/block-date", s.handleBlockDate).Methods(http.MethodPost)
	api.HandleFunc("/settings/capacity/unblock-date", s.handleUnblockDate).Methods(http.MethodPost)
	api.HandleFunc("/settings/capacity/block-slot", s.handleBlockSlot).Methods(http.MethodPost)
	api.HandleFunc("/settings/capacity/unblock-slot", s.handleUnblockSlot).Methods(http.MethodPost)
	api.HandleFunc("/settings/capacity/override", s.handleSlotOverride).Methods(http.MethodPost)

	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/export/schedule", s.handleExportSchedule).Methods(http.MethodGet)

	return r
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(recorder, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		metrics.IncHTTP(endpoint)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
