// internal/infrastructure/queue/worker.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Handler processes one job. A non-nil error reschedules the job until
// the attempt limit is reached.
type Handler func(ctx context.Context, job *Job) error

// Worker consumes jobs from a Queue and dispatches them to registered
// handlers
type Worker struct {
	queue    *Queue
	logger   *logrus.Logger
	handlers map[JobType]Handler
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewWorker creates a worker for the given queue
func NewWorker(q *Queue, logger *logrus.Logger) *Worker {
	return &Worker{
		queue:    q,
		logger:   logger,
		handlers: make(map[JobType]Handler),
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (w *Worker) Register(jobType JobType, handler Handler) {
	w.handlers[jobType] = handler
}

// Start launches the consumer goroutines and the delayed-job promoter
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	for i := 0; i < w.queue.config.Queue.Concurrency; i++ {
		w.wg.Add(1)
		go w.consume(ctx)
	}

	w.wg.Add(1)
	go w.promote(ctx)

	w.logger.WithField("concurrency", w.queue.config.Queue.Concurrency).Info("queue worker started")
}

// Stop signals all goroutines to finish and waits for them
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("queue worker stopped")
}

func (w *Worker) consume(ctx context.Context) {
	defer w.wg.Done()

	for {
		result, err := w.queue.client.BRPop(ctx, 5*time.Second, w.queue.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue // timeout, poll again
			}
			w.logger.WithError(err).Error("failed to pop job from queue")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
				continue
			}
		}

		// BRPop returns [key, value]
		if len(result) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			w.logger.WithError(err).Error("discarding malformed job")
			continue
		}

		w.process(ctx, &job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	entry := w.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.Type,
		"attempt":  job.Attempts + 1,
	})

	handler, ok := w.handlers[job.Type]
	if !ok {
		entry.Error("no handler registered for job type")
		return
	}

	if err := handler(ctx, job); err != nil {
		job.Attempts++

		if job.Attempts >= w.queue.config.Queue.MaxAttempts {
			entry.WithError(err).Error("job permanently failed")
			return
		}

		delay := BackoffFor(job.Attempts, w.queue.config.Queue.RetryBackoff)
		entry.WithError(err).WithField("retry_in", delay.String()).Warn("job failed, scheduling retry")

		if err := w.queue.retryLater(ctx, job, delay); err != nil {
			entry.WithError(err).Error("failed to schedule job retry")
		}
		return
	}

	entry.Debug("job processed")
}

func (w *Worker) promote(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.queue.promoteDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.WithError(err).Error("failed to promote delayed jobs")
			}
		}
	}
}

// BackoffFor returns the retry delay for the given attempt count. The
// base delay doubles per attempt, capped at one hour.
func BackoffFor(attempts int, base time.Duration) time.Duration {
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay > time.Hour {
			return time.Hour
		}
	}
	return delay
}
