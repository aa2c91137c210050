package models

import "time"

// Reservation is a table booking for a given date and start time.
// Contact fields are a snapshot taken at booking time so guest reservations
// survive independently of any user profile.
type Reservation struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id,omitempty"` // 0 for guest reservations
	ConfirmationCode string `json:"confirmation_code"`

	GuestName  string `json:"guest_name"`
	GuestPhone string `json:"guest_phone"`
	GuestEmail string `json:"guest_email,omitempty"`

	Date              string `json:"date"` // YYYY-MM-DD
	Time              string `json:"time"` // HH:MM, 24h
	EstimatedDuration int    `json:"estimated_duration"` // minutes

	PartySize   int    `json:"party_size"`
	TableNumber string `json:"table_number,omitempty"`
	TableType   string `json:"table_type,omitempty"`

	Status         string `json:"status"`
	SpecialRequest string `json:"special_request,omitempty"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy  int64      `json:"cancelled_by,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Notes []StaffNote `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// StaffNote is an append-only annotation on a reservation.
type StaffNote struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether the reservation consumes seat capacity.
func (r *Reservation) IsActive() bool {
	switch r.Status {
	case ReservationPending, ReservationConfirmed, ReservationSeated:
		return true
	}
	return false
}

// StartsAt combines Date and Time in the given location.
func (r *Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, loc)
}

// ReservationFilter narrows list queries. Zero values mean "any".
type ReservationFilter struct {
	Date     string
	FromDate string
	ToDate   string
	Status   string
	UserID   int64
}

// AvailabilityResult is the outcome of a capacity forecast for one slot.
type AvailabilityResult struct {
	Available         bool   `json:"available"`
	Blocked           bool   `json:"blocked"`
	BlockedReason     string `json:"blocked_reason,omitempty"`
	MaxCapacity       int    `json:"max_capacity"`
	ReservedCapacity  int    `json:"reserved_capacity"`
	RemainingCapacity int    `json:"remaining_capacity"`
	ConflictingCount  int    `json:"conflicting_count"`
}
