package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maitred/internal/database"
	"maitred/internal/domain"
	"maitred/internal/events"
	"maitred/internal/metrics"
	"maitred/internal/models"
	"maitred/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReservationService runs availability forecasts and the reservation
// lifecycle over the store, settings policy and collaborators.
type ReservationService struct {
	store    domain.ReservationStore
	settings domain.SettingsService
	eventBus domain.EventPublisher
	tasks    domain.TaskEnqueuer
	logger   *zerolog.Logger

	// now is swapped in tests to pin the cutoff clock.
	now func() time.Time
}

func NewReservationService(store domain.ReservationStore, settings domain.SettingsService,
	eventBus domain.EventPublisher, tasks domain.TaskEnqueuer, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		settings: settings,
		eventBus: eventBus,
		tasks:    tasks,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckAvailability is a read-only capacity forecast for one slot. The same
// computation re-runs inside the store transaction on create, so the forecast
// can be stale but the write cannot over-book.
func (s *ReservationService) CheckAvailability(ctx context.Context, date, clock string, partySize int) (*models.AvailabilityResult, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, err
	}
	start, err := schedule.ParseClock(clock)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.GetOrCreateDefaults(ctx)
	if err != nil {
		return nil, err
	}

	effective := schedule.ResolveCapacity(settings, date, clock)
	if effective.Blocked {
		return &models.AvailabilityResult{
			Available:     false,
			Blocked:       true,
			BlockedReason: effective.BlockedReason,
		}, nil
	}

	active, err := s.store.GetActiveReservationsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	window := schedule.NewInterval(start, settings.DiningDuration)
	reserved, conflicting := schedule.ReservedLoad(active, window, settings.DiningDuration)

	remaining := effective.Capacity - reserved
	if remaining < 0 {
		remaining = 0
	}

	return &models.AvailabilityResult{
		Available:         reserved+partySize <= effective.Capacity,
		MaxCapacity:       effective.Capacity,
		ReservedCapacity:  reserved,
		RemainingCapacity: remaining,
		ConflictingCount:  conflicting,
	}, nil
}

// Create validates and books a reservation in pending state. The capacity
// check runs again inside the store transaction.
func (s *ReservationService) Create(ctx context.Context, r *models.Reservation) error {
	if err := s.validateBooking(r); err != nil {
		return err
	}

	settings, err := s.settings.GetOrCreateDefaults(ctx)
	if err != nil {
		return err
	}

	startsAt, err := r.StartsAt(time.Local)
	if err != nil {
		return err
	}
	if startsAt.Before(s.now().Add(models.MinAdvanceMinutes * time.Minute)) {
		metrics.IncAvailabilityRejection("cutoff")
		return ErrTooSoon
	}

	effective := schedule.ResolveCapacity(settings, r.Date, r.Time)
	if effective.Blocked {
		metrics.IncAvailabilityRejection("blocked")
		return &SlotBlockedError{Date: r.Date, Time: r.Time, Reason: effective.BlockedReason}
	}
	if r.PartySize > effective.Capacity {
		metrics.IncAvailabilityRejection("capacity")
		return &CapacityError{Requested: r.PartySize, Remaining: effective.Capacity}
	}

	r.Status = models.ReservationPending
	r.ConfirmationCode = uuid.NewString()
	if r.EstimatedDuration <= 0 {
		r.EstimatedDuration = settings.DiningDuration
	}

	load, err := s.store.CreateReservationChecked(ctx, r, effective.Capacity, settings.DiningDuration)
	if err != nil {
		return translateCapacityErr(err, r.PartySize, effective.Capacity-load)
	}

	s.logger.Info().Int64("reservation_id", r.ID).Str("date", r.Date).Str("time", r.Time).
		Int("party_size", r.PartySize).Msg("reservation created")
	s.publish(events.EventReservationCreated, r)
	return nil
}

func (s *ReservationService) validateBooking(r *models.Reservation) error {
	if strings.TrimSpace(r.GuestName) == "" {
		return fmt.Errorf("guest name is required")
	}
	if strings.TrimSpace(r.GuestPhone) == "" {
		return fmt.Errorf("guest phone is required")
	}
	if r.PartySize < models.MinPartySize || r.PartySize > models.MaxPartySize {
		return fmt.Errorf("party size must be between %d and %d", models.MinPartySize, models.MaxPartySize)
	}
	if r.TableType != "" && !models.IsValidTableType(r.TableType) {
		return fmt.Errorf("unknown table type %q", r.TableType)
	}
	if _, err := schedule.ParseDate(r.Date); err != nil {
		return err
	}
	if _, err := schedule.ParseClock(r.Time); err != nil {
		return err
	}
	return nil
}

func (s *ReservationService) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) GetByCode(ctx context.Context, code string) (*models.Reservation, error) {
	return s.store.GetReservationByCode(ctx, code)
}

func (s *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	return s.store.ListReservations(ctx, filter)
}

// Modify retimes or resizes a booking. Only the owner or staff may do it,
// only outside the cutoff window, and only while the reservation is still
// pending or confirmed. Slot and capacity rules re-apply for the new values.
func (s *ReservationService) Modify(ctx context.Context, id int64, change domain.ReservationChange, actorID int64, staff bool) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && r.UserID != actorID {
		return nil, ErrNotOwner
	}
	if r.Status != models.ReservationPending && r.Status != models.ReservationConfirmed {
		return nil, &InvalidTransitionError{Entity: "reservation", From: r.Status, To: r.Status}
	}

	if err := s.checkCutoff(r, ErrTooLateToModify); err != nil {
		return nil, err
	}

	if change.Date != nil {
		r.Date = *change.Date
	}
	if change.Time != nil {
		r.Time = *change.Time
	}
	if change.PartySize != nil {
		r.PartySize = *change.PartySize
	}
	if change.TableType != nil {
		r.TableType = *change.TableType
	}
	if change.SpecialRequest != nil {
		r.SpecialRequest = *change.SpecialRequest
	}
	if err := s.validateBooking(r); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetOrCreateDefaults(ctx)
	if err != nil {
		return nil, err
	}

	startsAt, err := r.StartsAt(time.Local)
	if err != nil {
		return nil, err
	}
	if startsAt.Before(s.now().Add(models.MinAdvanceMinutes * time.Minute)) {
		return nil, ErrTooSoon
	}

	effective := schedule.ResolveCapacity(settings, r.Date, r.Time)
	if effective.Blocked {
		return nil, &SlotBlockedError{Date: r.Date, Time: r.Time, Reason: effective.BlockedReason}
	}

	load, err := s.store.RetimeReservationChecked(ctx, r, effective.Capacity, settings.DiningDuration)
	if err != nil {
		return nil, translateCapacityErr(err, r.PartySize, effective.Capacity-load)
	}

	s.publish(events.EventReservationModified, r)
	return r, nil
}

// Confirm moves a pending reservation to confirmed. Staff action.
func (s *ReservationService) Confirm(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.transition(ctx, id, models.ReservationConfirmed, events.EventReservationConfirmed, nil)
}

// CheckIn seats a confirmed party at a table.
func (s *ReservationService) CheckIn(ctx context.Context, id int64, tableNumber string) (*models.Reservation, error) {
	if strings.TrimSpace(tableNumber) == "" {
		return nil, fmt.Errorf("table number is required to seat a party")
	}
	return s.transition(ctx, id, models.ReservationSeated, events.EventReservationSeated, func(r *models.Reservation) {
		now := s.now()
		r.TableNumber = tableNumber
		r.CheckedInAt = &now
	})
}

// Complete closes a seated reservation and awards loyalty points to the
// owning user through the background worker.
func (s *ReservationService) Complete(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := s.transition(ctx, id, models.ReservationCompleted, events.EventReservationCompleted, func(r *models.Reservation) {
		now := s.now()
		r.CompletedAt = &now
	})
	if err != nil {
		return nil, err
	}

	if r.UserID != 0 && s.tasks != nil {
		if err := s.tasks.EnqueueAwardPoints(ctx, r.ID, r.UserID, models.LoyaltyPointsPerVisit); err != nil {
			s.logger.Error().Err(err).Int64("reservation_id", r.ID).Msg("enqueue loyalty award")
		}
	}
	return r, nil
}

// Cancel voids a pending or confirmed reservation. Guests may only cancel
// their own, and only while more than the cutoff remains before the start.
func (s *ReservationService) Cancel(ctx context.Context, id int64, reason string, actorID int64, staff bool) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && r.UserID != actorID {
		return nil, ErrNotOwner
	}
	if err := reservationTransition(r.Status, models.ReservationCancelled); err != nil {
		return nil, err
	}
	if err := s.checkCutoff(r, ErrTooLateToCancel); err != nil {
		return nil, err
	}

	now := s.now()
	r.Status = models.ReservationCancelled
	r.CancelledAt = &now
	r.CancelledBy = actorID
	r.CancelReason = reason

	if err := s.store.UpdateReservationState(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("reservation_id", r.ID).Str("reason", reason).Msg("reservation cancelled")
	metrics.IncReservationTransition(models.ReservationCancelled)
	s.publish(events.EventReservationCancelled, r)
	return r, nil
}

// MarkNoShow records that a confirmed or seated party never turned up / left
// without closing out. Staff action.
func (s *ReservationService) MarkNoShow(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.transition(ctx, id, models.ReservationNoShow, events.EventReservationNoShow, nil)
}

// AddNote appends a staff note to any non-terminal reservation.
func (s *ReservationService) AddNote(ctx context.Context, id int64, authorID int64, content string) (*models.Reservation, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("note content is required")
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalReservationStatus(r.Status) {
		return nil, &InvalidTransitionError{Entity: "reservation", From: r.Status, To: r.Status}
	}

	note := &models.StaffNote{AuthorID: authorID, Content: content}
	if err := s.store.AddReservationNote(ctx, id, note); err != nil {
		return nil, err
	}
	r.Notes = append(r.Notes, *note)
	return r, nil
}

// transition applies one table-validated status move plus its audit stamps in
// a single versioned update, so a failed write leaves the entity untouched.
func (s *ReservationService) transition(ctx context.Context, id int64, to, eventType string, stamp func(*models.Reservation)) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := reservationTransition(r.Status, to); err != nil {
		return nil, err
	}

	from := r.Status
	r.Status = to
	if stamp != nil {
		stamp(r)
	}

	if err := s.store.UpdateReservationState(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("reservation_id", r.ID).Str("from", from).Str("to", to).Msg("reservation transition")
	metrics.IncReservationTransition(to)
	s.publish(eventType, r)
	return r, nil
}

func (s *ReservationService) checkCutoff(r *models.Reservation, cutoffErr error) error {
	startsAt, err := r.StartsAt(time.Local)
	if err != nil {
		return err
	}
	if s.now().After(startsAt.Add(-models.CancellationCutoffMinutes * time.Minute)) {
		return cutoffErr
	}
	return nil
}

func (s *ReservationService) publish(eventType string, r *models.Reservation) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID:    r.ID,
		ConfirmationCode: r.ConfirmationCode,
		UserID:           r.UserID,
		GuestName:        r.GuestName,
		GuestEmail:       r.GuestEmail,
		Date:             r.Date,
		Time:             r.Time,
		PartySize:        r.PartySize,
		Status:           r.Status,
		TableNumber:      r.TableNumber,
		CancelReason:     r.CancelReason,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}

// translateCapacityErr maps the store sentinel to the typed service error so
// API callers see one error kind for both the forecast and the checked write.
// The load measured inside the transaction supplies the true remainder.
func translateCapacityErr(err error, requested, remaining int) error {
	if errors.Is(err, database.ErrCapacityExceeded) {
		metrics.IncAvailabilityRejection("capacity")
		if remaining < 0 {
			remaining = 0
		}
		return &CapacityError{Requested: requested, Remaining: remaining}
	}
	return err
}
