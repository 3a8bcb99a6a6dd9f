// internal/infrastructure/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
)

// JobType identifies the handler a job is dispatched to
type JobType string

const (
	JobOrderConfirmation JobType = "order_confirmation"
	JobOrderShipped      JobType = "order_shipped"
	JobPaymentSucceeded  JobType = "payment_succeeded"
	JobPaymentFailed     JobType = "payment_failed"
	JobAuditRecord       JobType = "audit_record"
)

// Job is the unit of work pushed onto the queue
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Dispatcher is what producers depend on. The HTTP layer never sees
// the Redis client directly.
type Dispatcher interface {
	Enqueue(ctx context.Context, jobType JobType, payload interface{}) error
}

// Queue is a Redis list backed job queue with a sorted-set delayed
// queue for retries
type Queue struct {
	client     *redis.Client
	config     *config.Config
	logger     *logrus.Logger
	key        string
	delayedKey string
}

// New creates a new queue backed by the given Redis client
func New(client *redis.Client, cfg *config.Config, logger *logrus.Logger) *Queue {
	return &Queue{
		client:     client,
		config:     cfg,
		logger:     logger,
		key:        cfg.Queue.Key,
		delayedKey: cfg.Queue.Key + ":delayed",
	}
}

// Enqueue pushes a job onto the queue
func (q *Queue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    data,
		Attempts:   0,
		EnqueuedAt: time.Now().UTC(),
	}

	return q.push(ctx, job)
}

func (q *Queue) push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.Type,
	}).Debug("job enqueued")

	return nil
}

// retryLater schedules a failed job for a delayed retry
func (q *Queue) retryLater(ctx context.Context, job *Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	readyAt := float64(time.Now().UTC().Add(delay).Unix())
	return q.client.ZAdd(ctx, q.delayedKey, redis.Z{Score: readyAt, Member: data}).Err()
}

// promoteDue moves delayed jobs whose retry time has passed back onto
// the main list
func (q *Queue) promoteDue(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UTC().Unix())

	entries, err := q.client.ZRangeByScore(ctx, q.delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if removed, err := q.client.ZRem(ctx, q.delayedKey, entry).Result(); err != nil || removed == 0 {
			continue // another worker picked it up
		}
		if err := q.client.LPush(ctx, q.key, entry).Err(); err != nil {
			return err
		}
	}

	return nil
}

// NoopDispatcher is used when the queue backend is disabled; jobs are
// accepted and dropped
type NoopDispatcher struct {
	logger *logrus.Logger
}

// NewNoopDispatcher creates a dispatcher that drops all jobs
func NewNoopDispatcher(logger *logrus.Logger) *NoopDispatcher {
	return &NoopDispatcher{logger: logger}
}

// Enqueue logs and discards the job
func (d *NoopDispatcher) Enqueue(_ context.Context, jobType JobType, _ interface{}) error {
	d.logger.WithField("job_type", jobType).Debug("queue disabled, dropping job")
	return nil
}
