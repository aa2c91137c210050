package database

import (
	"context"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShift(employeeID int64, start, end string) *models.Shift {
	return &models.Shift{
		EmployeeID:   employeeID,
		EmployeeName: "Grace Hopper",
		Date:         "2026-06-01",
		StartTime:    start,
		EndTime:      end,
		ShiftType:    models.ShiftMorning,
		Position:     "server",
		Status:       models.ShiftScheduled,
	}
}

func TestCreateShiftChecked(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestShift(1, "09:00", "13:00")
	conflicts, err := db.CreateShiftChecked(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NotZero(t, s.ID)

	// overlapping window for the same employee is rejected with the conflict
	overlapping := newTestShift(1, "12:30", "16:00")
	conflicts, err = db.CreateShiftChecked(ctx, overlapping)
	assert.ErrorIs(t, err, ErrShiftConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, s.ID, conflicts[0].ID)
	assert.Zero(t, overlapping.ID)

	// back-to-back is fine: [09:00,13:00) and [13:00,17:00) only touch
	adjacent := newTestShift(1, "13:00", "17:00")
	_, err = db.CreateShiftChecked(ctx, adjacent)
	assert.NoError(t, err)

	// a different employee can overlap freely
	colleague := newTestShift(2, "12:30", "16:00")
	_, err = db.CreateShiftChecked(ctx, colleague)
	assert.NoError(t, err)
}

func TestRetimeShiftCheckedExcludesSelf(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestShift(1, "09:00", "13:00")
	_, err := db.CreateShiftChecked(ctx, s)
	require.NoError(t, err)

	// shrinking within its own old window must not self-conflict
	s.StartTime = "10:00"
	s.EndTime = "12:00"
	conflicts, err := db.RetimeShiftChecked(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, int64(2), s.Version)

	other := newTestShift(1, "14:00", "18:00")
	_, err = db.CreateShiftChecked(ctx, other)
	require.NoError(t, err)

	// but moving onto a colleague shift still conflicts
	s.StartTime = "15:00"
	s.EndTime = "19:00"
	conflicts, err = db.RetimeShiftChecked(ctx, s)
	assert.ErrorIs(t, err, ErrShiftConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, other.ID, conflicts[0].ID)
}

func TestUpdateShiftState(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestShift(1, "09:00", "13:00")
	_, err := db.CreateShiftChecked(ctx, s)
	require.NoError(t, err)

	now := time.Now()
	s.Status = models.ShiftInProgress
	s.ActualStart = &now
	require.NoError(t, db.UpdateShiftState(ctx, s))

	got, err := db.GetShift(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftInProgress, got.Status)
	require.NotNil(t, got.ActualStart)
	assert.WithinDuration(t, now, *got.ActualStart, time.Second)

	stale := *got
	stale.Version = 1
	stale.Status = models.ShiftCancelled
	assert.ErrorIs(t, db.UpdateShiftState(ctx, &stale), ErrConcurrentModification)
}

func TestListShiftsFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	morning := newTestShift(1, "09:00", "13:00")
	_, err := db.CreateShiftChecked(ctx, morning)
	require.NoError(t, err)

	evening := newTestShift(2, "17:00", "23:00")
	evening.ShiftType = models.ShiftEvening
	evening.Position = "chef"
	evening.Date = "2026-06-02"
	_, err = db.CreateShiftChecked(ctx, evening)
	require.NoError(t, err)

	byEmployee, err := db.ListShifts(ctx, models.ShiftFilter{EmployeeID: 1})
	require.NoError(t, err)
	require.Len(t, byEmployee, 1)
	assert.Equal(t, morning.ID, byEmployee[0].ID)

	byPosition, err := db.ListShifts(ctx, models.ShiftFilter{Position: "chef"})
	require.NoError(t, err)
	require.Len(t, byPosition, 1)

	ranged, err := db.ListShifts(ctx, models.ShiftFilter{FromDate: "2026-06-01", ToDate: "2026-06-02"})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestDeleteShift(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestShift(1, "09:00", "13:00")
	_, err := db.CreateShiftChecked(ctx, s)
	require.NoError(t, err)

	require.NoError(t, db.DeleteShift(ctx, s.ID))
	_, err = db.GetShift(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteShift(ctx, s.ID), ErrNotFound)
}
