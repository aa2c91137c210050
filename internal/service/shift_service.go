package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/metrics"
	"maitred/internal/models"
	"maitred/internal/schedule"

	"github.com/rs/zerolog"
)

// ShiftService runs the shift conflict checker and shift lifecycle.
type ShiftService struct {
	store    domain.ShiftStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	now func() time.Time
}

func NewShiftService(store domain.ShiftStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *ShiftService {
	return &ShiftService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckConflicts is the read-only overlap probe for one employee and day.
// excludeID skips the shift being edited so it never collides with itself.
func (s *ShiftService) CheckConflicts(ctx context.Context, employeeID int64, date, start, end string, excludeID int64) ([]*models.Shift, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, err
	}
	window, err := schedule.ClockInterval(start, end)
	if err != nil {
		return nil, err
	}

	active, err := s.store.GetActiveShiftsForEmployee(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	return schedule.OverlappingShifts(active, window, excludeID), nil
}

// Create validates and stores a shift in scheduled state. The conflict check
// re-runs inside the store transaction; colliding shifts come back in a
// ConflictError.
func (s *ShiftService) Create(ctx context.Context, shift *models.Shift) error {
	if err := s.validateShift(shift); err != nil {
		return err
	}

	shift.Status = models.ShiftScheduled
	if shift.ShiftType == "" {
		derived, err := schedule.DeriveShiftType(shift.StartTime, shift.EndTime)
		if err != nil {
			return err
		}
		shift.ShiftType = derived
	}

	conflicts, err := s.store.CreateShiftChecked(ctx, shift)
	if err != nil {
		if len(conflicts) > 0 {
			metrics.IncShiftConflict()
			return &ConflictError{Conflicts: conflicts}
		}
		return err
	}

	s.logger.Info().Int64("shift_id", shift.ID).Int64("employee_id", shift.EmployeeID).
		Str("date", shift.Date).Str("type", shift.ShiftType).Msg("shift created")
	s.publish(events.EventShiftCreated, shift)
	return nil
}

func (s *ShiftService) validateShift(shift *models.Shift) error {
	if shift.EmployeeID == 0 {
		return fmt.Errorf("employee id is required")
	}
	if strings.TrimSpace(shift.EmployeeName) == "" {
		return fmt.Errorf("employee name is required")
	}
	if _, err := schedule.ParseDate(shift.Date); err != nil {
		return err
	}
	if _, err := schedule.ClockInterval(shift.StartTime, shift.EndTime); err != nil {
		return err
	}
	if shift.BreakDuration < 0 {
		return fmt.Errorf("break duration must not be negative")
	}
	return nil
}

func (s *ShiftService) Get(ctx context.Context, id int64) (*models.Shift, error) {
	return s.store.GetShift(ctx, id)
}

func (s *ShiftService) List(ctx context.Context, filter models.ShiftFilter) ([]*models.Shift, error) {
	return s.store.ListShifts(ctx, filter)
}

// Update retimes a scheduled shift. Conflicts re-check against everything but
// the shift itself.
func (s *ShiftService) Update(ctx context.Context, shift *models.Shift) error {
	current, err := s.store.GetShift(ctx, shift.ID)
	if err != nil {
		return err
	}
	if current.Status != models.ShiftScheduled {
		return &InvalidTransitionError{Entity: "shift", From: current.Status, To: current.Status}
	}
	if err := s.validateShift(shift); err != nil {
		return err
	}

	shift.Status = current.Status
	shift.Version = current.Version
	if shift.ShiftType == "" {
		derived, err := schedule.DeriveShiftType(shift.StartTime, shift.EndTime)
		if err != nil {
			return err
		}
		shift.ShiftType = derived
	}

	conflicts, err := s.store.RetimeShiftChecked(ctx, shift)
	if err != nil {
		if len(conflicts) > 0 {
			metrics.IncShiftConflict()
			return &ConflictError{Conflicts: conflicts}
		}
		return err
	}

	s.publish(events.EventShiftUpdated, shift)
	return nil
}

// Delete removes a shift outright. Cancel is the audited alternative.
func (s *ShiftService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteShift(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("shift_id", id).Msg("shift deleted")
	return nil
}

// ClockIn stamps the actual start and moves the shift to in-progress.
func (s *ShiftService) ClockIn(ctx context.Context, id int64) (*models.Shift, error) {
	return s.transition(ctx, id, models.ShiftInProgress, events.EventShiftUpdated, func(shift *models.Shift) {
		now := s.now()
		shift.ActualStart = &now
	})
}

// ClockOut stamps the actual end and completes the shift. Overtime falls out
// of the recorded stamps, not a separate field.
func (s *ShiftService) ClockOut(ctx context.Context, id int64) (*models.Shift, error) {
	return s.transition(ctx, id, models.ShiftCompleted, events.EventShiftUpdated, func(shift *models.Shift) {
		now := s.now()
		shift.ActualEnd = &now
	})
}

func (s *ShiftService) Cancel(ctx context.Context, id int64) (*models.Shift, error) {
	return s.transition(ctx, id, models.ShiftCancelled, events.EventShiftCancelled, nil)
}

func (s *ShiftService) MarkNoShow(ctx context.Context, id int64) (*models.Shift, error) {
	return s.transition(ctx, id, models.ShiftNoShow, events.EventShiftUpdated, nil)
}

func (s *ShiftService) transition(ctx context.Context, id int64, to, eventType string, stamp func(*models.Shift)) (*models.Shift, error) {
	shift, err := s.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shiftTransition(shift.Status, to); err != nil {
		return nil, err
	}

	from := shift.Status
	shift.Status = to
	if stamp != nil {
		stamp(shift)
	}

	if err := s.store.UpdateShiftState(ctx, shift); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("shift_id", shift.ID).Str("from", from).Str("to", to).Msg("shift transition")
	s.publish(eventType, shift)
	return shift, nil
}

func (s *ShiftService) publish(eventType string, shift *models.Shift) {
	if s.eventBus == nil {
		return
	}

	payload := events.ShiftEventPayload{
		ShiftID:      shift.ID,
		EmployeeID:   shift.EmployeeID,
		EmployeeName: shift.EmployeeName,
		Date:         shift.Date,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		Status:       shift.Status,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("shift_id", shift.ID).Msg("publish event error")
	}
}
