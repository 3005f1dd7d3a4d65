package assets

import (
	"context"

	"github.com/google/uuid"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/schedule"
)

// Store reads panels.
type Store interface {
	List(ctx context.Context) ([]models.Asset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
}

// BookingSource reads a panel's bookings.
type BookingSource interface {
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.PlaylistItem, error)
}

// QuoteSource resolves the campaigns referenced by bookings.
type QuoteSource interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Quote, error)
}

// OccupancyReport is the load of one panel over a date window.
type OccupancyReport struct {
	AssetID      uuid.UUID `json:"asset_id"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Quota        int       `json:"quota"`
	PendingMedia int       `json:"pending_media"`
	Warning      string    `json:"warning,omitempty"`
	schedule.Occupancy
}

// Service answers inventory questions with the scheduling engine.
type Service struct {
	store    Store
	bookings BookingSource
	quotes   QuoteSource
	engine   *schedule.Engine
}

// NewService creates an asset service. quotes may be nil, in which case pending media is 0.
func NewService(store Store, bookings BookingSource, quotes QuoteSource, engine *schedule.Engine) *Service {
	return &Service{store: store, bookings: bookings, quotes: quotes, engine: engine}
}

// List returns all panels.
func (s *Service) List(ctx context.Context) ([]models.Asset, error) {
	return s.store.List(ctx)
}

// Get returns one panel.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return s.store.GetByID(ctx, id)
}

// Occupancy reports how loaded a panel is over [start, end] and how many of the overlapping
// campaigns still lack received media.
func (s *Service) Occupancy(ctx context.Context, id uuid.UUID, start, end string) (*OccupancyReport, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	asset, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.bookings.ListByAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := schedule.NewSnapshot(items)
	quota := s.engine.QuotaFor(asset)
	report := &OccupancyReport{
		AssetID:   id,
		Start:     start,
		End:       end,
		Quota:     quota,
		Occupancy: s.engine.Occupancy(snap, id, start, end, quota),
	}
	report.Warning, _ = s.engine.CheckSoftConflict(snap, id, start, end)

	lookup, err := s.quoteLookup(ctx, snap.BookingsInRange(id, start, end))
	if err != nil {
		return nil, err
	}
	report.PendingMedia = s.engine.PendingMedia(snap, id, start, end, lookup)
	return report, nil
}

// Bookings returns the panel's bookings that play on day.
func (s *Service) Bookings(ctx context.Context, id uuid.UUID, day string) ([]models.PlaylistItem, error) {
	if _, ok := schedule.ParseDate(day); !ok {
		return nil, apperr.Invalid("date", "%q is not a YYYY-MM-DD date", day)
	}
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.bookings.ListByAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return schedule.NewSnapshot(items).BookingsFor(id, day), nil
}

func (s *Service) quoteLookup(ctx context.Context, items []models.PlaylistItem) (schedule.QuoteLookup, error) {
	if s.quotes == nil {
		return nil, nil
	}
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, it := range items {
		if it.QuoteID != nil && !seen[*it.QuoteID] {
			seen[*it.QuoteID] = true
			ids = append(ids, *it.QuoteID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	quotes, err := s.quotes.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Quote, len(quotes))
	for _, q := range quotes {
		byID[q.ID] = q
	}
	return func(id uuid.UUID) (models.Quote, bool) {
		q, ok := byID[id]
		return q, ok
	}, nil
}

func validateWindow(start, end string) error {
	if _, ok := schedule.ParseDate(start); !ok {
		return apperr.Invalid("start", "%q is not a YYYY-MM-DD date", start)
	}
	if _, ok := schedule.ParseDate(end); !ok {
		return apperr.Invalid("end", "%q is not a YYYY-MM-DD date", end)
	}
	if start > end {
		return apperr.Invalid("end", "end %s is before start %s", end, start)
	}
	return nil
}
