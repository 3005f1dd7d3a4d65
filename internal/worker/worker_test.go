package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/pkg/queue"
)

type fakeQueue struct {
	mu         sync.Mutex
	jobs       []*queue.Job
	retried    []*queue.Job
	deadLetter []*queue.Job
}

func (q *fakeQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		<-ctx.Done()
		return nil, "", ctx.Err()
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.mu.Unlock()
	return j, queue.QueueValidations, nil
}

func (q *fakeQueue) Retry(ctx context.Context, job *queue.Job) error {
	job.Attempt++
	q.retried = append(q.retried, job)
	return nil
}

func (q *fakeQueue) DeadLetter(ctx context.Context, job *queue.Job) error {
	q.deadLetter = append(q.deadLetter, job)
	return nil
}

type tempDownloader struct {
	dir   string
	err   error
	paths []string
}

func (d *tempDownloader) DownloadToTemp(ctx context.Context, key string) (string, string, error) {
	if d.err != nil {
		return "", "", d.err
	}
	p := filepath.Join(d.dir, uuid.NewString()+filepath.Ext(key))
	if err := os.WriteFile(p, []byte("data"), 0o600); err != nil {
		return "", "", err
	}
	d.paths = append(d.paths, p)
	return p, "application/octet-stream", nil
}

type fakeSubmitter struct {
	reqs []mediaval.TransitionRequest
	err  error
}

func (s *fakeSubmitter) Submit(ctx context.Context, req mediaval.TransitionRequest) (*mediaval.Outcome, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &mediaval.Outcome{Accepted: true, Entry: models.MediaHistoryEntry{Status: req.Target}}, nil
}

type outcomes []string

func (o *outcomes) JobProcessed(outcome string) { *o = append(*o, outcome) }

func validationJob(t *testing.T, p queue.MediaValidationPayload) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeMediaValidation, p)
	require.NoError(t, err)
	return job
}

func TestProcessSubmitsReceivedWithDownloadedFile(t *testing.T) {
	dl := &tempDownloader{dir: t.TempDir()}
	sub := &fakeSubmitter{}
	rec := &outcomes{}
	p := NewValidationProcessor(sub, dl, &fakeQueue{}, rec, nil)

	quote := uuid.New()
	job := validationJob(t, queue.MediaValidationPayload{
		QuoteID: quote, S3Key: "deliveries/q/spot.mp4", ContentType: "video/mp4",
		Filename: "spot.mp4", TargetResolution: "1080x1920", User: "ops@example.com", Note: "v2",
	})
	assert.Equal(t, OutcomeDone, p.Handle(context.Background(), job))

	require.Len(t, sub.reqs, 1)
	req := sub.reqs[0]
	assert.Equal(t, quote, req.QuoteID)
	assert.Equal(t, models.MediaStatusReceived, req.Target)
	assert.Equal(t, "1080x1920", req.TargetResolution)
	require.NotNil(t, req.File)
	assert.Equal(t, "video/mp4", req.File.ContentType)
	assert.Equal(t, []string{OutcomeDone}, []string(*rec))

	_, err := os.Stat(dl.paths[0])
	assert.True(t, os.IsNotExist(err), "temp file is removed")
}

func TestTransientFailureIsRetried(t *testing.T) {
	q := &fakeQueue{}
	p := NewValidationProcessor(&fakeSubmitter{}, &tempDownloader{err: errors.New("s3 timeout")}, q, nil, nil)
	job := validationJob(t, queue.MediaValidationPayload{QuoteID: uuid.New(), S3Key: "k.png"})

	assert.Equal(t, OutcomeRetried, p.Handle(context.Background(), job))
	assert.Len(t, q.retried, 1)
	assert.Empty(t, q.deadLetter)
}

func TestPermanentFailuresAreDeadLettered(t *testing.T) {
	q := &fakeQueue{}
	dl := &tempDownloader{dir: t.TempDir()}
	p := NewValidationProcessor(&fakeSubmitter{err: apperr.ErrNotFound}, dl, q, nil, nil)

	job := validationJob(t, queue.MediaValidationPayload{QuoteID: uuid.New(), S3Key: "k.png"})
	assert.Equal(t, OutcomeDeadLettered, p.Handle(context.Background(), job))

	bad := &queue.Job{ID: "x", Type: queue.JobTypeMediaValidation, Payload: []byte("{")}
	assert.Equal(t, OutcomeDeadLettered, p.Handle(context.Background(), bad))

	other := &queue.Job{ID: "y", Type: "email", Payload: []byte("{}")}
	assert.Equal(t, OutcomeDeadLettered, p.Handle(context.Background(), other))

	assert.Len(t, q.deadLetter, 3)
	assert.Empty(t, q.retried)
}

func TestRunStopsOnCancel(t *testing.T) {
	q := &fakeQueue{}
	sub := &fakeSubmitter{}
	q.jobs = []*queue.Job{validationJob(t, queue.MediaValidationPayload{QuoteID: uuid.New(), S3Key: "a.png"})}
	p := NewValidationProcessor(sub, &tempDownloader{dir: t.TempDir()}, q, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return q.pending() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Len(t, sub.reqs, 1)
}
