package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maitred/internal/models"
)

// CreateTask persists a background task in the durable queue.
func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO task_queue (task_type, reservation_id, payload, status, attempts, last_error, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.TaskType, task.ReservationID, task.Payload, task.Status, task.Attempts, task.LastError, now,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingTasks returns queued tasks whose retry time has come, oldest first.
func (db *DB) GetPendingTasks(ctx context.Context, limit int) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, task_type, reservation_id, payload, status, attempts, last_error, created_at, processed_at
         FROM task_queue
         WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
         ORDER BY created_at ASC LIMIT ?`,
		time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// MarkTaskRetry reschedules a failed attempt.
func (db *DB) MarkTaskRetry(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE task_queue SET status = 'retry', last_error = ?, next_retry_at = ?, attempts = attempts + 1 WHERE id = ?`,
		errMsg, nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("mark task retry: %w", err)
	}
	return nil
}

// FinishTask closes a task as done or failed.
func (db *DB) FinishTask(ctx context.Context, id int64, status, errMsg string) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`UPDATE task_queue SET status = ?, last_error = ?, processed_at = ? WHERE id = ?`,
		status, errMsg, now, id)
	if err != nil {
		return fmt.Errorf("finish task: %w", err)
	}
	return nil
}

// GetFailedTasks lists dead-lettered tasks for inspection.
func (db *DB) GetFailedTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, task_type, reservation_id, payload, status, attempts, last_error, created_at, processed_at
         FROM task_queue WHERE status = 'failed' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("get failed tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var lastError sql.NullString
		if err := rows.Scan(&t.ID, &t.TaskType, &t.ReservationID, &t.Payload, &t.Status,
			&t.Attempts, &lastError, &t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.LastError = lastError.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
