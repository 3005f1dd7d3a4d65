package playlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/realtime"
	"github.com/dooh-ops/backend/internal/schedule"
)

const (
	defaultStartTime = "00:00"
	defaultEndTime   = "23:59"
)

// Store is the booking persistence used by the service.
type Store interface {
	ListAll(ctx context.Context) ([]models.PlaylistItem, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.PlaylistItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PlaylistItem, error)
	Create(ctx context.Context, it *models.PlaylistItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MediaLookup resolves creatives.
type MediaLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
}

// AssetLookup resolves panels.
type AssetLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
}

// Notifier pushes events to dashboard rooms.
type Notifier interface {
	Publish(room, event string, payload interface{})
}

// Recorder receives booking events for instrumentation.
type Recorder interface {
	BookingCreated(warned bool)
	SoftConflictWarned()
}

// CreateResult is a stored booking and the soft-conflict warning computed before it was stored.
type CreateResult struct {
	Item    *models.PlaylistItem `json:"item"`
	Warning string               `json:"warning,omitempty"`
}

// ChangeEvent is published to the asset room after a booking is created or deleted.
type ChangeEvent struct {
	Action string              `json:"action"`
	Item   models.PlaylistItem `json:"item"`
}

// Service coordinates bookings with the scheduling engine. Every call reads a fresh snapshot.
type Service struct {
	store    Store
	media    MediaLookup
	assets   AssetLookup
	engine   *schedule.Engine
	notifier Notifier
	recorder Recorder
	logger   *zap.Logger
}

// NewService creates a playlist service. notifier and recorder may be nil.
func NewService(store Store, media MediaLookup, assets AssetLookup, engine *schedule.Engine, notifier Notifier, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		media:    media,
		assets:   assets,
		engine:   engine,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
	}
}

// ListByAsset returns a panel's bookings.
func (s *Service) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.PlaylistItem, error) {
	return s.store.ListByAsset(ctx, assetID)
}

// ListAll returns every booking.
func (s *Service) ListAll(ctx context.Context) ([]models.PlaylistItem, error) {
	return s.store.ListAll(ctx)
}

// Grid returns, per panel, the bookings that play on day.
func (s *Service) Grid(ctx context.Context, day string) (map[uuid.UUID][]models.PlaylistItem, error) {
	if _, ok := schedule.ParseDate(day); !ok {
		return nil, apperr.Invalid("date", "%q is not a YYYY-MM-DD date", day)
	}
	items, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.NewSnapshot(items).Grid(day), nil
}

// Check validates a submission and returns the soft-conflict warning it would get, if any.
func (s *Service) Check(ctx context.Context, sub schedule.Submission) (string, error) {
	if err := schedule.ValidateSubmission(sub); err != nil {
		return "", err
	}
	warning, err := s.softConflict(ctx, sub)
	if err != nil {
		return "", err
	}
	if warning != "" && s.recorder != nil {
		s.recorder.SoftConflictWarned()
	}
	return warning, nil
}

// Create validates and stores a booking. The referenced media must be approved. A busy panel
// yields a warning alongside the stored booking, never a refusal.
func (s *Service) Create(ctx context.Context, sub schedule.Submission) (*CreateResult, error) {
	if err := schedule.ValidateSubmission(sub); err != nil {
		return nil, err
	}
	if s.assets != nil {
		if _, err := s.assets.GetByID(ctx, sub.AssetID); err != nil {
			return nil, fmt.Errorf("asset %s: %w", sub.AssetID, err)
		}
	}
	media, err := s.media.GetByID(ctx, sub.MediaID)
	if err != nil {
		return nil, fmt.Errorf("media %s: %w", sub.MediaID, err)
	}
	if !media.IsApproved() {
		return nil, apperr.ErrMediaNotApproved
	}

	warning, err := s.softConflict(ctx, sub)
	if err != nil {
		return nil, err
	}

	item := sub.Item()
	if item.StartTime == "" {
		item.StartTime = defaultStartTime
	}
	if item.EndTime == "" {
		item.EndTime = defaultEndTime
	}
	if err := s.store.Create(ctx, &item); err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.BookingCreated(warning != "")
	}
	s.publish("created", item)
	s.logger.Info("booking created",
		zap.String("id", item.ID.String()),
		zap.String("asset_id", item.AssetID.String()),
		zap.String("media_id", item.MediaID.String()),
		zap.String("start_date", item.StartDate),
		zap.String("end_date", item.EndDate),
		zap.Bool("soft_conflict", warning != ""),
	)
	return &CreateResult{Item: &item, Warning: warning}, nil
}

// Delete removes a booking.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish("deleted", *item)
	s.logger.Info("booking deleted", zap.String("id", id.String()), zap.String("asset_id", item.AssetID.String()))
	return nil
}

func (s *Service) softConflict(ctx context.Context, sub schedule.Submission) (string, error) {
	existing, err := s.store.ListByAsset(ctx, sub.AssetID)
	if err != nil {
		return "", err
	}
	warning, _ := s.engine.CheckSoftConflict(schedule.NewSnapshot(existing), sub.AssetID, sub.StartDate, sub.EndDate)
	return warning, nil
}

func (s *Service) publish(action string, item models.PlaylistItem) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(realtime.AssetRoom(item.AssetID), realtime.EventPlaylistChanged, ChangeEvent{Action: action, Item: item})
}
