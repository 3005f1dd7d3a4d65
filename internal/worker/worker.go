package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/pkg/queue"
)

// Job outcomes reported to the recorder.
const (
	OutcomeDone         = "done"
	OutcomeRetried      = "retried"
	OutcomeDeadLettered = "dead_lettered"
)

// errPermanent marks failures that no retry can fix.
var errPermanent = errors.New("permanent job failure")

// JobQueue is the Redis queue surface the worker uses.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
	DeadLetter(ctx context.Context, job *queue.Job) error
}

// Downloader fetches a stored delivery into a local temporary file.
type Downloader interface {
	DownloadToTemp(ctx context.Context, key string) (path, contentType string, err error)
}

// Submitter records a media status transition.
type Submitter interface {
	Submit(ctx context.Context, req mediaval.TransitionRequest) (*mediaval.Outcome, error)
}

// JobRecorder counts job outcomes.
type JobRecorder interface {
	JobProcessed(outcome string)
}

// ValidationProcessor validates deliveries queued by the API and records the transition to
// received, exactly as a synchronous validation would.
type ValidationProcessor struct {
	submitter  Submitter
	downloader Downloader
	queue      JobQueue
	recorder   JobRecorder
	backoff    time.Duration
	logger     *zap.Logger
}

// NewValidationProcessor creates a media validation processor. recorder may be nil.
func NewValidationProcessor(submitter Submitter, downloader Downloader, q JobQueue, recorder JobRecorder, logger *zap.Logger) *ValidationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationProcessor{
		submitter:  submitter,
		downloader: downloader,
		queue:      q,
		recorder:   recorder,
		backoff:    queue.RetryBackoff,
		logger:     logger,
	}
}

// Process executes one media validation job.
func (p *ValidationProcessor) Process(ctx context.Context, job *queue.Job) (*mediaval.Outcome, error) {
	if job.Type != queue.JobTypeMediaValidation {
		return nil, fmt.Errorf("%w: unknown job type %s", errPermanent, job.Type)
	}
	var payload queue.MediaValidationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payload: %v", errPermanent, err)
	}

	path, contentType, err := p.downloader.DownloadToTemp(ctx, payload.S3Key)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", payload.S3Key, err)
	}
	defer os.Remove(path)
	if payload.ContentType != "" {
		contentType = payload.ContentType
	}

	out, err := p.submitter.Submit(ctx, mediaval.TransitionRequest{
		QuoteID:  payload.QuoteID,
		Target:   models.MediaStatusReceived,
		User:     payload.User,
		Note:     payload.Note,
		Override: payload.Override,
		File: &mediaval.File{
			Path:        path,
			Name:        payload.Filename,
			ContentType: contentType,
		},
		TargetResolution: payload.TargetResolution,
	})
	if err != nil {
		if apperr.IsValidation(err) || errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", errPermanent, err)
		}
		return nil, err
	}
	p.logger.Info("media validation completed",
		zap.String("job_id", job.ID),
		zap.String("quote_id", payload.QuoteID.String()),
		zap.Bool("accepted", out.Accepted),
	)
	return out, nil
}

// Handle processes a job and requeues or dead-letters it on failure. It returns the outcome label.
func (p *ValidationProcessor) Handle(ctx context.Context, job *queue.Job) string {
	_, err := p.Process(ctx, job)
	outcome := OutcomeDone
	switch {
	case err == nil:
	case errors.Is(err, errPermanent):
		p.logger.Error("job failed permanently", zap.String("job_id", job.ID), zap.Error(err))
		if dlErr := p.queue.DeadLetter(ctx, job); dlErr != nil {
			p.logger.Error("dead-letter failed", zap.Error(dlErr))
		}
		outcome = OutcomeDeadLettered
	default:
		p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		outcome = OutcomeRetried
		if job.Attempt+1 >= queue.MaxRetries {
			outcome = OutcomeDeadLettered
		}
		if reErr := p.queue.Retry(ctx, job); reErr != nil {
			p.logger.Error("retry enqueue failed", zap.Error(reErr))
		}
	}
	if p.recorder != nil {
		p.recorder.JobProcessed(outcome)
	}
	return outcome
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ValidationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("validation worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if p.Handle(ctx, job) == OutcomeRetried {
			p.sleep(ctx)
		}
	}
}

func (p *ValidationProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
