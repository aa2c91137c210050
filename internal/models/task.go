package models

import "time"

// Background task types processed by the worker.
const (
	TaskAwardPoints  = "award_points"
	TaskSyncSchedule = "sync_schedule"
)

// Task statuses in the persistent queue.
const (
	TaskPending = "pending"
	TaskDone    = "done"
	TaskFailed  = "failed"
)

// Task is a persisted unit of background work. Payload is task-specific JSON.
type Task struct {
	ID            int64      `json:"id"`
	TaskType      string     `json:"task_type"`
	ReservationID int64      `json:"reservation_id,omitempty"`
	Payload       string     `json:"payload"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}
