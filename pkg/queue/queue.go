package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueValidations is the Redis list key for media validation jobs.
	QueueValidations = "worker:validations"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
	// dequeueTimeout bounds each BLPOP so workers notice shutdown.
	dequeueTimeout = 5 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeMediaValidation JobType = "media_validation"
)

// MediaValidationPayload asks the worker to validate an object already in the media bucket and
// record the outcome against a campaign.
type MediaValidationPayload struct {
	QuoteID          uuid.UUID `json:"quote_id"`
	S3Key            string    `json:"s3_key"`
	ContentType      string    `json:"content_type"`
	Filename         string    `json:"filename"`
	TargetResolution string    `json:"target_resolution"`
	User             string    `json:"user"`
	Override         bool      `json:"override"`
	Note             string    `json:"note"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client redis.Cmdable, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// NewJob wraps payload in an envelope with a fresh id.
func NewJob(t JobType, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		Attempt:   0,
		CreatedAt: time.Now(),
	}, nil
}

// EnqueueMediaValidation enqueues a media validation job and returns its id.
func (q *Queue) EnqueueMediaValidation(ctx context.Context, payload MediaValidationPayload) (string, error) {
	job, err := NewJob(JobTypeMediaValidation, payload)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueValidations, raw).Err(); err != nil {
		return "", fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued media validation job", zap.String("job_id", job.ID), zap.String("quote_id", payload.QuoteID.String()))
	return job.ID, nil
}

// Dequeue blocks until a job is available, the poll times out, or ctx is done. Returns job and key (queue name).
// A malformed entry is logged and dropped; the returned job is nil in that case.
func (q *Queue) Dequeue(ctx context.Context) (*Job, string, error) {
	result, err := q.client.BLPop(ctx, dequeueTimeout, QueueValidations).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", err
	}
	if len(result) < 2 {
		return nil, "", nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, "", nil
	}
	return &job, result[0], nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		return q.DeadLetter(ctx, job)
	}
	if err := q.client.RPush(ctx, QueueValidations, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DeadLetter pushes job straight to the DLQ. Used for jobs that can never succeed.
func (q *Queue) DeadLetter(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
		q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
		return err
	}
	q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
