package quotes

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/realtime"
)

// Store reads campaigns and their history.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	History(ctx context.Context, quoteID uuid.UUID) ([]models.MediaHistoryEntry, error)
}

// Notifier pushes events to dashboard rooms.
type Notifier interface {
	Publish(room, event string, payload interface{})
}

// StatusEvent is published to the campaign room after every transition attempt.
type StatusEvent struct {
	QuoteID  uuid.UUID                `json:"quote_id"`
	Status   models.MediaStatus       `json:"status"`
	Accepted bool                     `json:"accepted"`
	Entry    models.MediaHistoryEntry `json:"entry"`
}

// Service runs media status transitions for campaigns and announces them. It is shared by the
// API and the background worker.
type Service struct {
	store    Store
	workflow *mediaval.Workflow
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a quote service. notifier may be nil.
func NewService(store Store, workflow *mediaval.Workflow, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, workflow: workflow, notifier: notifier, logger: logger}
}

// Get returns a campaign.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return s.store.GetByID(ctx, id)
}

// History returns a campaign and its media history.
func (s *Service) History(ctx context.Context, id uuid.UUID) (*models.Quote, []models.MediaHistoryEntry, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.store.History(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return q, entries, nil
}

// Submit runs one transition through the workflow and publishes the outcome.
func (s *Service) Submit(ctx context.Context, req mediaval.TransitionRequest) (*mediaval.Outcome, error) {
	out, err := s.workflow.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Publish(realtime.QuoteRoom(req.QuoteID), realtime.EventMediaStatusChanged, StatusEvent{
			QuoteID:  req.QuoteID,
			Status:   out.Entry.Status,
			Accepted: out.Accepted,
			Entry:    out.Entry,
		})
	}
	return out, nil
}
