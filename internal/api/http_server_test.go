package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/models"
	"maitred/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server       *Server
	reservations *mockReservationService
	shifts       *mockShiftService
	settings     *mockSettingsService
	stats        *mockStatsService
	exporter     *mockExporter
}

func newTestServer(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	env := &testEnv{
		reservations: new(mockReservationService),
		shifts:       new(mockShiftService),
		settings:     new(mockSettingsService),
		stats:        new(mockStatsService),
		exporter:     new(mockExporter),
	}
	env.server = NewServer(cfg, Deps{
		Reservations: env.reservations,
		Shifts:       env.shifts,
		Settings:     env.settings,
		Stats:        env.stats,
		Exporter:     env.exporter,
	}, &logger)
	return env
}

func (e *testEnv) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAvailabilityEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("CheckAvailability", mock.Anything, "2025-03-10", "19:00", 4).
			Return(&models.AvailabilityResult{Available: true, MaxCapacity: 50, RemainingCapacity: 46}, nil).Once()

		rec := env.do(http.MethodGet, "/api/v1/availability?date=2025-03-10&time=19:00&party_size=4", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result models.AvailabilityResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Available)
		assert.Equal(t, 46, result.RemainingCapacity)
		env.reservations.AssertExpectations(t)
	})

	t.Run("MissingParams", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		rec := env.do(http.MethodGet, "/api/v1/availability?date=2025-03-10", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadPartySize", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		rec := env.do(http.MethodGet, "/api/v1/availability?date=2025-03-10&time=19:00&party_size=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateReservationEndpoint(t *testing.T) {
	body := map[string]any{
		"guest_name":  "Ivanov",
		"guest_phone": "+700",
		"date":        "2025-03-10",
		"time":        "19:00",
		"party_size":  4,
	}

	t.Run("Created", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Create", mock.Anything, mock.MatchedBy(func(r *models.Reservation) bool {
			return r.GuestName == "Ivanov" && r.PartySize == 4
		})).Return(nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations", body)
		assert.Equal(t, http.StatusCreated, rec.Code)
		env.reservations.AssertExpectations(t)
	})

	t.Run("CapacityConflict", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Create", mock.Anything, mock.Anything).
			Return(&service.CapacityError{Requested: 4, Remaining: 2}).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations", body)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, float64(2), resp["remaining"])
	})

	t.Run("SlotBlocked", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Create", mock.Anything, mock.Anything).
			Return(&service.SlotBlockedError{Date: "2025-03-10", Time: "19:00", Reason: "date blocked"}).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("TooSoon", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Create", mock.Anything, mock.Anything).
			Return(service.ErrTooSoon).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReservationLifecycleEndpoints(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Get", mock.Anything, int64(99)).Return(nil, database.ErrNotFound).Once()

		rec := env.do(http.MethodGet, "/api/v1/reservations/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Confirm", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Confirm", mock.Anything, int64(3)).
			Return(&models.Reservation{ID: 3, Status: models.ReservationConfirmed}, nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations/3/confirm", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var r models.Reservation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
		assert.Equal(t, models.ReservationConfirmed, r.Status)
	})

	t.Run("CheckInWithTable", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("CheckIn", mock.Anything, int64(3), "T7").
			Return(&models.Reservation{ID: 3, Status: models.ReservationSeated, TableNumber: "T7"}, nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations/3/checkin", map[string]string{"table_number": "T7"})
		assert.Equal(t, http.StatusOK, rec.Code)
		env.reservations.AssertExpectations(t)
	})

	t.Run("CancelInsideCutoff", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Cancel", mock.Anything, int64(3), "sick", int64(42), false).
			Return(nil, service.ErrTooLateToCancel).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations/3/cancel",
			map[string]any{"reason": "sick", "actor_id": 42})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("CancelNotOwner", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Cancel", mock.Anything, int64(3), "", int64(7), false).
			Return(nil, service.ErrNotOwner).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations/3/cancel", map[string]any{"actor_id": 7})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("CompleteInvalidTransition", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Complete", mock.Anything, int64(3)).
			Return(nil, &service.InvalidTransitionError{Entity: "reservation", From: "pending", To: "completed"}).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations/3/complete", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Modify", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("Modify", mock.Anything, int64(3), mock.MatchedBy(func(c domain.ReservationChange) bool {
			return c.Time != nil && *c.Time == "20:00" && c.Date == nil
		}), int64(42), false).Return(&models.Reservation{ID: 3, Time: "20:00"}, nil).Once()

		rec := env.do(http.MethodPatch, "/api/v1/reservations/3",
			map[string]any{"time": "20:00", "actor_id": 42})
		assert.Equal(t, http.StatusOK, rec.Code)
		env.reservations.AssertExpectations(t)
	})

	t.Run("AddNote", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.reservations.On("AddNote", mock.Anything, int64(3), int64(9), "prefers window").
			Return(&models.Reservation{ID: 3}, nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/reservations/3/notes",
			map[string]any{"author_id": 9, "content": "prefers window"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		rec := env.do(http.MethodGet, "/api/v1/reservations/abc", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestShiftEndpoints(t *testing.T) {
	t.Run("CreateConflict", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		colliding := []*models.Shift{{ID: 7, StartTime: "09:00", EndTime: "17:00"}}
		env.shifts.On("Create", mock.Anything, mock.Anything).
			Return(&service.ConflictError{Conflicts: colliding}).Once()

		rec := env.do(http.MethodPost, "/api/v1/shifts", map[string]any{
			"employee_id": 5, "employee_name": "Anna", "date": "2025-03-10",
			"start_time": "16:00", "end_time": "20:00",
		})
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp struct {
			Conflicts []*models.Shift `json:"conflicts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Conflicts, 1)
		assert.Equal(t, int64(7), resp.Conflicts[0].ID)
	})

	t.Run("ConflictProbe", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.shifts.On("CheckConflicts", mock.Anything, int64(5), "2025-03-10", "16:00", "20:00", int64(0)).
			Return([]*models.Shift{}, nil).Once()

		rec := env.do(http.MethodGet, "/api/v1/shifts/conflicts?employee_id=5&date=2025-03-10&start=16:00&end=20:00", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			HasConflicts bool `json:"has_conflicts"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.HasConflicts)
		env.shifts.AssertExpectations(t)
	})

	t.Run("ClockIn", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.shifts.On("ClockIn", mock.Anything, int64(4)).
			Return(&models.Shift{ID: 4, Status: models.ShiftInProgress}, nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/shifts/4/clock-in", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.shifts.On("Delete", mock.Anything, int64(4)).Return(nil).Once()

		rec := env.do(http.MethodDelete, "/api/v1/shifts/4", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("List", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.shifts.On("List", mock.Anything, models.ShiftFilter{EmployeeID: 5, FromDate: "2025-03-10", ToDate: "2025-03-12"}).
			Return([]*models.Shift{{ID: 1}}, nil).Once()

		rec := env.do(http.MethodGet, "/api/v1/shifts?employee_id=5&from=2025-03-10&to=2025-03-12", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		env.shifts.AssertExpectations(t)
	})
}

func TestSettingsEndpoints(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.settings.On("GetOrCreateDefaults", mock.Anything).
			Return(models.DefaultCapacitySettings(), nil).Once()

		rec := env.do(http.MethodGet, "/api/v1/settings/capacity", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var settings models.CapacitySettings
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
		assert.Equal(t, models.DefaultMaxCapacity, settings.MaxCapacity)
	})

	t.Run("BlockDate", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		blocked := models.DefaultCapacitySettings()
		blocked.BlockedDates = []string{"2025-03-10"}
		env.settings.On("BlockDate", mock.Anything, "2025-03-10").Return(blocked, nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/settings/capacity/block-date",
			map[string]string{"date": "2025-03-10"})
		assert.Equal(t, http.StatusOK, rec.Code)
		env.settings.AssertExpectations(t)
	})

	t.Run("SlotOverride", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.settings.On("SetSlotOverride", mock.Anything, "2025-03-10", "19:00", 12).
			Return(models.DefaultCapacitySettings(), nil).Once()

		rec := env.do(http.MethodPost, "/api/v1/settings/capacity/override",
			map[string]any{"date": "2025-03-10", "time": "19:00", "capacity": 12})
		assert.Equal(t, http.StatusOK, rec.Code)
		env.settings.AssertExpectations(t)
	})

	t.Run("UpdateRejected", func(t *testing.T) {
		env := newTestServer(t, config.APIConfig{})
		env.settings.On("Update", mock.Anything, mock.Anything).
			Return(assert.AnError).Once()

		rec := env.do(http.MethodPut, "/api/v1/settings/capacity",
			map[string]any{"max_capacity": -1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestServer(t, config.APIConfig{})
	env.stats.On("Collect", mock.Anything, "2025-03-10", "2025-03-16").
		Return(&models.ScheduleStats{
			From: "2025-03-10", To: "2025-03-16",
			Reservations: models.ReservationStats{Total: 12},
		}, nil).Once()

	rec := env.do(http.MethodGet, "/api/v1/stats?from=2025-03-10&to=2025-03-16", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.ScheduleStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 12, stats.Reservations.Total)

	rec = env.do(http.MethodGet, "/api/v1/stats?from=2025-03-10", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	env := newTestServer(t, config.APIConfig{})

	filePath := filepath.Join(t.TempDir(), "schedule.xlsx")
	require.NoError(t, os.WriteFile(filePath, []byte("stub"), 0o644))
	env.exporter.On("ExportSchedule", mock.Anything, "2025-03-10", "2025-03-16").
		Return(filePath, nil).Once()

	rec := env.do(http.MethodGet, "/api/v1/export/schedule?from=2025-03-10&to=2025-03-16", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule.xlsx")
	env.exporter.AssertExpectations(t)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestServer(t, config.APIConfig{})
	rec := env.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
