package service

import (
	"context"

	"maitred/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockReservationStore struct {
	mock.Mock
}

func (m *mockReservationStore) CreateReservationChecked(ctx context.Context, r *models.Reservation, capacity, diningDuration int) (int, error) {
	args := m.Called(ctx, r, capacity, diningDuration)
	return args.Int(0), args.Error(1)
}
func (m *mockReservationStore) RetimeReservationChecked(ctx context.Context, r *models.Reservation, capacity, diningDuration int) (int, error) {
	args := m.Called(ctx, r, capacity, diningDuration)
	return args.Int(0), args.Error(1)
}
func (m *mockReservationStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}
func (m *mockReservationStore) GetReservationByCode(ctx context.Context, code string) (*models.Reservation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}
func (m *mockReservationStore) GetActiveReservationsByDate(ctx context.Context, date string) ([]*models.Reservation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockReservationStore) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Reservation), args.Error(1)
}
func (m *mockReservationStore) UpdateReservationState(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockReservationStore) AddReservationNote(ctx context.Context, reservationID int64, note *models.StaffNote) error {
	return m.Called(ctx, reservationID, note).Error(0)
}

type mockShiftStore struct {
	mock.Mock
}

func (m *mockShiftStore) CreateShiftChecked(ctx context.Context, s *models.Shift) ([]*models.Shift, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shift), args.Error(1)
}
func (m *mockShiftStore) RetimeShiftChecked(ctx context.Context, s *models.Shift) ([]*models.Shift, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shift), args.Error(1)
}
func (m *mockShiftStore) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shift), args.Error(1)
}
func (m *mockShiftStore) GetActiveShiftsForEmployee(ctx context.Context, employeeID int64, date string) ([]*models.Shift, error) {
	args := m.Called(ctx, employeeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shift), args.Error(1)
}
func (m *mockShiftStore) ListShifts(ctx context.Context, filter models.ShiftFilter) ([]*models.Shift, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Shift), args.Error(1)
}
func (m *mockShiftStore) UpdateShiftState(ctx context.Context, s *models.Shift) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockShiftStore) DeleteShift(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockSettingsStore struct {
	mock.Mock
}

func (m *mockSettingsStore) GetSettings(ctx context.Context) (*models.CapacitySettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CapacitySettings), args.Error(1)
}
func (m *mockSettingsStore) InsertSettings(ctx context.Context, s *models.CapacitySettings) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSettingsStore) SaveSettings(ctx context.Context, s *models.CapacitySettings) error {
	return m.Called(ctx, s).Error(0)
}

type mockSettingsCache struct {
	mock.Mock
}

func (m *mockSettingsCache) Get(ctx context.Context) (*models.CapacitySettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CapacitySettings), args.Error(1)
}
func (m *mockSettingsCache) Set(ctx context.Context, s *models.CapacitySettings) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSettingsCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockTaskEnqueuer struct {
	mock.Mock
}

func (m *mockTaskEnqueuer) EnqueueAwardPoints(ctx context.Context, reservationID, userID int64, points int) error {
	return m.Called(ctx, reservationID, userID, points).Error(0)
}
func (m *mockTaskEnqueuer) EnqueueScheduleSync(ctx context.Context, fromDate, toDate string) error {
	return m.Called(ctx, fromDate, toDate).Error(0)
}

// stubSettings is a SettingsService that always returns the same policy.
type stubSettings struct {
	settings *models.CapacitySettings
}

func (s *stubSettings) GetOrCreateDefaults(context.Context) (*models.CapacitySettings, error) {
	return s.settings, nil
}
func (s *stubSettings) Update(context.Context, *models.CapacitySettings) error { return nil }
func (s *stubSettings) BlockDate(context.Context, string) (*models.CapacitySettings, error) {
	return s.settings, nil
}
func (s *stubSettings) UnblockDate(context.Context, string) (*models.CapacitySettings, error) {
	return s.settings, nil
}
func (s *stubSettings) BlockSlot(context.Context, string, string) (*models.CapacitySettings, error) {
	return s.settings, nil
}
func (s *stubSettings) UnblockSlot(context.Context, string, string) (*models.CapacitySettings, error) {
	return s.settings, nil
}
func (s *stubSettings) SetSlotOverride(context.Context, string, string, int) (*models.CapacitySettings, error) {
	return s.settings, nil
}
