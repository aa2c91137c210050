package domain

import (
	"context"
	"time"

	"maitred/internal/models"
)

// ReservationStore is the persistence surface for reservations. Checked
// writes re-run the capacity check inside the store's transaction and report
// the reserved load they measured, so a rejection can carry the remainder.
type ReservationStore interface {
	CreateReservationChecked(ctx context.Context, r *models.Reservation, capacity, diningDuration int) (int, error)
	RetimeReservationChecked(ctx context.Context, r *models.Reservation, capacity, diningDuration int) (int, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetReservationByCode(ctx context.Context, code string) (*models.Reservation, error)
	GetActiveReservationsByDate(ctx context.Context, date string) ([]*models.Reservation, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	UpdateReservationState(ctx context.Context, r *models.Reservation) error
	AddReservationNote(ctx context.Context, reservationID int64, note *models.StaffNote) error
}

// ShiftStore is the persistence surface for shifts. Checked writes re-run the
// conflict check inside the store's transaction and return the colliding set.
type ShiftStore interface {
	CreateShiftChecked(ctx context.Context, s *models.Shift) ([]*models.Shift, error)
	RetimeShiftChecked(ctx context.Context, s *models.Shift) ([]*models.Shift, error)
	GetShift(ctx context.Context, id int64) (*models.Shift, error)
	GetActiveShiftsForEmployee(ctx context.Context, employeeID int64, date string) ([]*models.Shift, error)
	ListShifts(ctx context.Context, filter models.ShiftFilter) ([]*models.Shift, error)
	UpdateShiftState(ctx context.Context, s *models.Shift) error
	DeleteShift(ctx context.Context, id int64) error
}

// SettingsStore persists the capacity settings singleton.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.CapacitySettings, error)
	InsertSettings(ctx context.Context, settings *models.CapacitySettings) error
	SaveSettings(ctx context.Context, settings *models.CapacitySettings) error
}

// SettingsCache is the read-through cache in front of the settings store.
type SettingsCache interface {
	Get(ctx context.Context) (*models.CapacitySettings, error)
	Set(ctx context.Context, settings *models.CapacitySettings) error
	Invalidate(ctx context.Context) error
}

// TaskQueue persists background work for the worker.
type TaskQueue interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetPendingTasks(ctx context.Context, limit int) ([]models.Task, error)
	MarkTaskRetry(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error
	FinishTask(ctx context.Context, id int64, status, errMsg string) error
}

// EventPublisher broadcasts domain events; email and other notification
// senders subscribe outside the core.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// LoyaltyClient is the external loyalty-accounting collaborator.
type LoyaltyClient interface {
	AwardPoints(ctx context.Context, userID int64, points int, reason string) error
}

// TaskEnqueuer schedules background work from the services.
type TaskEnqueuer interface {
	EnqueueAwardPoints(ctx context.Context, reservationID, userID int64, points int) error
	EnqueueScheduleSync(ctx context.Context, fromDate, toDate string) error
}

// SchedulePublisher pushes the schedule grid to an external sheet.
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, fromDate, toDate string,
		reservations []*models.Reservation, shifts []*models.Shift) error
}

// SettingsService owns the capacity policy singleton.
type SettingsService interface {
	GetOrCreateDefaults(ctx context.Context) (*models.CapacitySettings, error)
	Update(ctx context.Context, settings *models.CapacitySettings) error
	BlockDate(ctx context.Context, date string) (*models.CapacitySettings, error)
	UnblockDate(ctx context.Context, date string) (*models.CapacitySettings, error)
	BlockSlot(ctx context.Context, date, clock string) (*models.CapacitySettings, error)
	UnblockSlot(ctx context.Context, date, clock string) (*models.CapacitySettings, error)
	SetSlotOverride(ctx context.Context, date, clock string, capacity int) (*models.CapacitySettings, error)
}

// ReservationService is the availability and lifecycle engine.
type ReservationService interface {
	CheckAvailability(ctx context.Context, date, clock string, partySize int) (*models.AvailabilityResult, error)
	Create(ctx context.Context, r *models.Reservation) error
	Get(ctx context.Context, id int64) (*models.Reservation, error)
	GetByCode(ctx context.Context, code string) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	Modify(ctx context.Context, id int64, change ReservationChange, actorID int64, staff bool) (*models.Reservation, error)
	Confirm(ctx context.Context, id int64) (*models.Reservation, error)
	CheckIn(ctx context.Context, id int64, tableNumber string) (*models.Reservation, error)
	Complete(ctx context.Context, id int64) (*models.Reservation, error)
	Cancel(ctx context.Context, id int64, reason string, actorID int64, staff bool) (*models.Reservation, error)
	MarkNoShow(ctx context.Context, id int64) (*models.Reservation, error)
	AddNote(ctx context.Context, id int64, authorID int64, content string) (*models.Reservation, error)
}

// ReservationChange carries the mutable booking fields of an update request.
// Nil fields are left untouched.
type ReservationChange struct {
	Date           *string
	Time           *string
	PartySize      *int
	TableType      *string
	SpecialRequest *string
}

// ShiftService is the conflict checker and shift lifecycle.
type ShiftService interface {
	CheckConflicts(ctx context.Context, employeeID int64, date, start, end string, excludeID int64) ([]*models.Shift, error)
	Create(ctx context.Context, s *models.Shift) error
	Get(ctx context.Context, id int64) (*models.Shift, error)
	List(ctx context.Context, filter models.ShiftFilter) ([]*models.Shift, error)
	Update(ctx context.Context, s *models.Shift) error
	Delete(ctx context.Context, id int64) error
	ClockIn(ctx context.Context, id int64) (*models.Shift, error)
	ClockOut(ctx context.Context, id int64) (*models.Shift, error)
	Cancel(ctx context.Context, id int64) (*models.Shift, error)
	MarkNoShow(ctx context.Context, id int64) (*models.Shift, error)
}

// StatsService aggregates the two schedules for reporting.
type StatsService interface {
	Collect(ctx context.Context, fromDate, toDate string) (*models.ScheduleStats, error)
}
