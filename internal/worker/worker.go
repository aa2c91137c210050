package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maitred/internal/domain"
	"maitred/internal/metrics"
	"maitred/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// awardPointsPayload is persisted in Task.Payload for award_points tasks.
type awardPointsPayload struct {
	UserID int64 `json:"user_id"`
	Points int   `json:"points"`
}

// syncSchedulePayload is persisted in Task.Payload for sync_schedule tasks.
type syncSchedulePayload struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// Worker drains the durable task queue: loyalty point awards and schedule
// pushes to the external sheet. Tasks land in sqlite first; redis is a fast
// path on top of it, with an in-memory channel when redis is absent.
type Worker struct {
	tasks        domain.TaskQueue
	reservations domain.ReservationStore
	shifts       domain.ShiftStore
	loyalty      domain.LoyaltyClient
	publisher    domain.SchedulePublisher
	redis        *redis.Client
	retryPolicy  RetryPolicy
	queue        chan models.Task

	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

type Deps struct {
	Tasks        domain.TaskQueue
	Reservations domain.ReservationStore
	Shifts       domain.ShiftStore
	Loyalty      domain.LoyaltyClient
	Publisher    domain.SchedulePublisher
	Redis        *redis.Client
}

func New(deps Deps, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *Worker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	return &Worker{
		tasks:         deps.Tasks,
		reservations:  deps.Reservations,
		shifts:        deps.Shifts,
		loyalty:       deps.Loyalty,
		publisher:     deps.Publisher,
		redis:         deps.Redis,
		retryPolicy:   retry,
		queue:         make(chan models.Task, models.WorkerQueueSize),
		redisQueueKey: "tasks:queue",
		deadLetterKey: "tasks:deadletter",
		pollInterval:  pollInterval,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// EnqueueAwardPoints schedules a loyalty award for a completed reservation.
func (w *Worker) EnqueueAwardPoints(ctx context.Context, reservationID, userID int64, points int) error {
	if userID == 0 {
		return errors.New("user id is required")
	}
	payload, err := json.Marshal(awardPointsPayload{UserID: userID, Points: points})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return w.enqueue(ctx, models.Task{
		TaskType:      models.TaskAwardPoints,
		ReservationID: reservationID,
		Payload:       string(payload),
		Status:        models.TaskPending,
	})
}

// EnqueueScheduleSync schedules a push of the date range to the sheet.
func (w *Worker) EnqueueScheduleSync(ctx context.Context, fromDate, toDate string) error {
	if fromDate == "" || toDate == "" {
		return errors.New("date range is required")
	}
	payload, err := json.Marshal(syncSchedulePayload{FromDate: fromDate, ToDate: toDate})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return w.enqueue(ctx, models.Task{
		TaskType: models.TaskSyncSchedule,
		Payload:  string(payload),
		Status:   models.TaskPending,
	})
}

// enqueue persists the task and then schedules it via redis or the local
// channel. The sqlite row is the source of truth; losing the fast path only
// delays the task until the next poll.
func (w *Worker) enqueue(ctx context.Context, task models.Task) error {
	if err := w.tasks.CreateTask(ctx, &task); err != nil {
		return fmt.Errorf("persist task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, using local queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("local queue full, task left for polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Msg("worker started")
	defer w.logger.Info().Msg("worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.tasks.GetPendingTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *Worker) tryLocalQueue() (models.Task, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.Task{}, false
	}
}

func (w *Worker) tryRedis(ctx context.Context) (models.Task, bool) {
	if w.redis == nil {
		return models.Task{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.Task{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.Task{}, false
	}
	if len(res) != 2 {
		return models.Task{}, false
	}
	var task models.Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return models.Task{}, false
	}
	return task, true
}

func (w *Worker) processTask(ctx context.Context, task *models.Task) {
	if err := w.handleTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.tasks.FinishTask(ctx, task.ID, models.TaskDone, ""); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task done")
	}
	metrics.IncWorkerTask(task.TaskType, "done")
}

func (w *Worker) handleTask(ctx context.Context, task *models.Task) error {
	switch task.TaskType {
	case models.TaskAwardPoints:
		var payload awardPointsPayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if payload.UserID == 0 {
			return errors.New("user id missing")
		}
		if w.loyalty == nil {
			return errors.New("loyalty client not configured")
		}
		return w.loyalty.AwardPoints(ctx, payload.UserID, payload.Points, "completed reservation")

	case models.TaskSyncSchedule:
		var payload syncSchedulePayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if w.publisher == nil {
			return errors.New("schedule publisher not configured")
		}
		reservations, err := w.reservations.ListReservations(ctx, models.ReservationFilter{
			FromDate: payload.FromDate, ToDate: payload.ToDate,
		})
		if err != nil {
			return fmt.Errorf("load reservations: %w", err)
		}
		shifts, err := w.shifts.ListShifts(ctx, models.ShiftFilter{
			FromDate: payload.FromDate, ToDate: payload.ToDate,
		})
		if err != nil {
			return fmt.Errorf("load shifts: %w", err)
		}
		return w.publisher.PublishSchedule(ctx, payload.FromDate, payload.ToDate, reservations, shifts)

	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *Worker) retryOrFail(ctx context.Context, task *models.Task, cause error) {
	attempt := task.Attempts + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.tasks.FinishTask(ctx, task.ID, models.TaskFailed, cause.Error()); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task failed")
		}
		w.pushDeadLetter(ctx, task)
		metrics.IncWorkerTask(task.TaskType, "failed")
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	if err := w.tasks.MarkTaskRetry(ctx, task.ID, cause.Error(), time.Now().Add(nextDelay)); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task retry")
	}
	metrics.IncWorkerTask(task.TaskType, "retry")
}

func (w *Worker) pushRedis(ctx context.Context, task models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *Worker) pushDeadLetter(ctx context.Context, task *models.Task) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}
