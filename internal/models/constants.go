package models

// Reservation lifecycle statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationSeated    = "seated"
	ReservationCompleted = "completed"
	ReservationCancelled = "cancelled"
	ReservationNoShow    = "no-show"
)

// Shift lifecycle statuses.
const (
	ShiftScheduled  = "scheduled"
	ShiftInProgress = "in-progress"
	ShiftCompleted  = "completed"
	ShiftCancelled  = "cancelled"
	ShiftNoShow     = "no-show"
)

// Shift types. Derived from start hour and duration when not set explicitly.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
	ShiftFullDay   = "full-day"
	ShiftSplit     = "split"
)

// Table types offered at booking time.
const (
	TableStandard = "standard"
	TableBooth    = "booth"
	TableWindow   = "window"
	TableOutdoor  = "outdoor"
	TableBar      = "bar"
)

const (
	// DefaultMaxCapacity is the global seat capacity used until staff configure one.
	DefaultMaxCapacity = 50

	// DefaultDiningDuration is the overlap window in minutes for a reservation.
	DefaultDiningDuration = 90

	// MinPartySize and MaxPartySize bound a single reservation.
	MinPartySize = 1
	MaxPartySize = 20

	// MinAdvanceMinutes is how far ahead a reservation must start at creation.
	MinAdvanceMinutes = 60

	// CancellationCutoffMinutes is how long before start cancellation/modification closes.
	CancellationCutoffMinutes = 120

	// LoyaltyPointsPerVisit is awarded once per completed reservation.
	LoyaltyPointsPerVisit = 20

	// RegularShiftMinutes is the net duration beyond which shift time counts as overtime.
	RegularShiftMinutes = 8 * 60

	// WorkerQueueSize is the in-memory fallback queue size for background tasks.
	WorkerQueueSize = 1000

	// DefaultSettingsCacheTTL is the lifetime of cached capacity settings in seconds.
	DefaultSettingsCacheTTL = 5 * 60
)

// ActiveReservationStatuses are the statuses that consume seat capacity.
// Cancelled, no-show and completed reservations never count against a slot.
var ActiveReservationStatuses = []string{ReservationPending, ReservationConfirmed, ReservationSeated}

// ActiveShiftStatuses are the statuses considered when checking shift conflicts.
var ActiveShiftStatuses = []string{ShiftScheduled, ShiftInProgress}

// TerminalReservationStatuses permit no further transitions.
var TerminalReservationStatuses = []string{ReservationCompleted, ReservationCancelled, ReservationNoShow}

// IsTerminalReservationStatus reports whether the status is final.
func IsTerminalReservationStatus(status string) bool {
	for _, s := range TerminalReservationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidTableType reports whether t is a known table type.
func IsValidTableType(t string) bool {
	switch t {
	case TableStandard, TableBooth, TableWindow, TableOutdoor, TableBar:
		return true
	}
	return false
}
