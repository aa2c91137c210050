package api

import (
	"context"

	"maitred/internal/domain"
	"maitred/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockReservationService struct {
	mock.Mock
}

func (m *mockReservationService) CheckAvailability(ctx context.Context, date, clock string, partySize int) (*models.AvailabilityResult, error) {
	args := m.Called(ctx, date, clock, partySize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilityResult), args.Error(1)
}

func (m *mockReservationService) Create(ctx context.Context, r *models.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReservationService) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationService) GetByCode(ctx context.Context, code string) (*models.Reservation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}

func (m *mockReservationService) Modify(ctx context.Context, id int64, change domain.ReservationChange, actorID int64, staff bool) (*models.Reservation, error) {
	args := m.Called(ctx, id, change, actorID, staff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockReservationService) Confirm(ctx context.Context, id int64) (*models.Reservation, error) {
	return m.reservationResult(m.Called(ctx, id))
}

func (m *mockReservationService) CheckIn(ctx context.Context, id int64, tableNumber string) (*models.Reservation, error) {
	return m.reservationResult(m.Called(ctx, id, tableNumber))
}

func (m *mockReservationService) Complete(ctx context.Context, id int64) (*models.Reservation, error) {
	return m.reservationResult(m.Called(ctx, id))
}

func (m *mockReservationService) Cancel(ctx context.Context, id int64, reason string, actorID int64, staff bool) (*models.Reservation, error) {
	return m.reservationResult(m.Called(ctx, id, reason, actorID, staff))
}

func (m *mockReservationService) MarkNoShow(ctx context.Context, id int64) (*models.Reservation, error) {
	return m.reservationResult(m.Called(ctx, id))
}

func (m *mockReservationService) AddNote(ctx context.Context, id int64, authorID int64, content string) (*models.Reservation, error) {
	return m.reservationResult(m.Called(ctx, id, authorID, content))
}

func (m *mockReservationService) reservationResult(args mock.Arguments) (*models.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

type mockShiftService struct {
	mock.Mock
}

func (m *mockShiftService) CheckConflicts(ctx context.Context, employeeID int64, date, start, end string, excludeID int64) ([]*models.Shift, error) {
	args := m.Called(ctx, employeeID, date, start, end, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shift), args.Error(1)
}

func (m *mockShiftService) Create(ctx context.Context, s *models.Shift) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockShiftService) Get(ctx context.Context, id int64) (*models.Shift, error) {
	return m.shiftResult(m.Called(ctx, id))
}

func (m *mockShiftService) List(ctx context.Context, filter models.ShiftFilter) ([]*models.Shift, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shift), args.Error(1)
}

func (m *mockShiftService) Update(ctx context.Context, s *models.Shift) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockShiftService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockShiftService) ClockIn(ctx context.Context, id int64) (*models.Shift, error) {
	return m.shiftResult(m.Called(ctx, id))
}

func (m *mockShiftService) ClockOut(ctx context.Context, id int64) (*models.Shift, error) {
	return m.shiftResult(m.Called(ctx, id))
}

func (m *mockShiftService) Cancel(ctx context.Context, id int64) (*models.Shift, error) {
	return m.shiftResult(m.Called(ctx, id))
}

func (m *mockShiftService) MarkNoShow(ctx context.Context, id int64) (*models.Shift, error) {
	return m.shiftResult(m.Called(ctx, id))
}

func (m *mockShiftService) shiftResult(args mock.Arguments) (*models.Shift, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shift), args.Error(1)
}

type mockSettingsService struct {
	mock.Mock
}

func (m *mockSettingsService) GetOrCreateDefaults(ctx context.Context) (*models.CapacitySettings, error) {
	return m.settingsResult(m.Called(ctx))
}

func (m *mockSettingsService) Update(ctx context.Context, settings *models.CapacitySettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *mockSettingsService) BlockDate(ctx context.Context, date string) (*models.CapacitySettings, error) {
	return m.settingsResult(m.Called(ctx, date))
}

func (m *mockSettingsService) UnblockDate(ctx context.Context, date string) (*models.CapacitySettings, error) {
	return m.settingsResult(m.Called(ctx, date))
}

func (m *mockSettingsService) BlockSlot(ctx context.Context, date, clock string) (*models.CapacitySettings, error) {
	return m.settingsResult(m.Called(ctx, date, clock))
}

func (m *mockSettingsService) UnblockSlot(ctx context.Context, date, clock string) (*models.CapacitySettings, error) {
	return m.settingsResult(m.Called(ctx, date, clock))
}

func (m *mockSettingsService) SetSlotOverride(ctx context.Context, date, clock string, capacity int) (*models.CapacitySettings, error) {
	return m.settingsResult(m.Called(ctx, date, clock, capacity))
}

func (m *mockSettingsService) settingsResult(args mock.Arguments) (*models.CapacitySettings, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CapacitySettings), args.Error(1)
}

type mockStatsService struct {
	mock.Mock
}

func (m *mockStatsService) Collect(ctx context.Context, fromDate, toDate string) (*models.ScheduleStats, error) {
	args := m.Called(ctx, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduleStats), args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) ExportSchedule(ctx context.Context, fromDate, toDate string) (string, error) {
	args := m.Called(ctx, fromDate, toDate)
	return args.String(0), args.Error(1)
}
