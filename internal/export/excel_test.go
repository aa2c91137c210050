package export

import (
	"context"
	"io"
	"testing"

	"maitred/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
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
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReservationStore) AddReservationNote(ctx context.Context, reservationID int64, note *models.StaffNote) error {
	args := m.Called(ctx, reservationID, note)
	return args.Error(0)
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
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockShiftStore) DeleteShift(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestExportSchedule(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	reservations := []*models.Reservation{
		{Date: "2025-03-11", Time: "19:00", GuestName: "Ivanov", GuestPhone: "+700", PartySize: 4, Status: models.ReservationConfirmed, ConfirmationCode: "abc"},
		{Date: "2025-03-10", Time: "18:00", GuestName: "Petrov", GuestPhone: "+701", PartySize: 2, TableNumber: "T3", Status: models.ReservationSeated, ConfirmationCode: "def"},
	}
	shifts := []*models.Shift{
		{Date: "2025-03-10", EmployeeName: "Anna", StartTime: "09:00", EndTime: "17:00", ShiftType: models.ShiftMorning, Position: "waiter", Status: models.ShiftScheduled},
	}

	reservationStore := new(mockReservationStore)
	shiftStore := new(mockShiftStore)
	reservationStore.On("ListReservations", ctx, models.ReservationFilter{FromDate: "2025-03-10", ToDate: "2025-03-12"}).
		Return(reservations, nil).Once()
	shiftStore.On("ListShifts", ctx, models.ShiftFilter{FromDate: "2025-03-10", ToDate: "2025-03-12"}).
		Return(shifts, nil).Once()

	exporter := NewExporter(reservationStore, shiftStore, t.TempDir(), &logger)

	filePath, err := exporter.ExportSchedule(ctx, "2025-03-10", "2025-03-12")
	require.NoError(t, err)
	require.FileExists(t, filePath)
	assert.Contains(t, filePath, "schedule_2025-03-10_to_2025-03-12.xlsx")

	f, err := excelize.OpenFile(filePath)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(reservationsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Reservations 2025-03-10 to 2025-03-12", title)

	// Rows land sorted by date, then time.
	guest, err := f.GetCellValue(reservationsSheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "Petrov", guest)
	guest, err = f.GetCellValue(reservationsSheet, "C4")
	require.NoError(t, err)
	assert.Equal(t, "Ivanov", guest)

	employee, err := f.GetCellValue(shiftsSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Anna", employee)
	hours, err := f.GetCellValue(shiftsSheet, "H3")
	require.NoError(t, err)
	assert.Equal(t, "8", hours)

	reservationStore.AssertExpectations(t)
	shiftStore.AssertExpectations(t)
}

func TestExportScheduleBadRange(t *testing.T) {
	logger := zerolog.New(io.Discard)
	exporter := NewExporter(new(mockReservationStore), new(mockShiftStore), t.TempDir(), &logger)

	_, err := exporter.ExportSchedule(context.Background(), "2025-03-12", "2025-03-10")
	require.Error(t, err)

	_, err = exporter.ExportSchedule(context.Background(), "bad", "2025-03-10")
	require.Error(t, err)
}
