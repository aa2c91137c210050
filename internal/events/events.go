package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventReservationCreated   = "reservation_created"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationSeated    = "reservation_seated"
	EventReservationCompleted = "reservation_completed"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationNoShow    = "reservation_no_show"
	EventReservationModified  = "reservation_modified"

	EventShiftCreated   = "shift_created"
	EventShiftUpdated   = "shift_updated"
	EventShiftCancelled = "shift_cancelled"
)

// ReservationEventPayload is the reservation snapshot handed to subscribers;
// the mailer that sends confirmation/cancellation emails hangs off these.
type ReservationEventPayload struct {
	ReservationID    int64  `json:"reservation_id"`
	ConfirmationCode string `json:"confirmation_code"`
	UserID           int64  `json:"user_id,omitempty"`
	GuestName        string `json:"guest_name"`
	GuestEmail       string `json:"guest_email,omitempty"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	PartySize        int    `json:"party_size"`
	Status           string `json:"status"`
	TableNumber      string `json:"table_number,omitempty"`
	CancelReason     string `json:"cancel_reason,omitempty"`
}

// ShiftEventPayload is the shift snapshot handed to subscribers.
type ShiftEventPayload struct {
	ShiftID      int64  `json:"shift_id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Status       string `json:"status"`
}

// Event is a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub. Handlers run synchronously on the
// publishing goroutine.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
