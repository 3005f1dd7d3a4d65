package schedule

import (
	"math"

	"github.com/google/uuid"

	"github.com/dooh-ops/backend/internal/models"
)

// Band is the informative utilization class of an occupancy percentage.
type Band string

const (
	BandAtCapacity     Band = "at_capacity"
	BandHealthy        Band = "healthy"
	BandLowUtilization Band = "low_utilization"
)

// BandFor classifies percent. Thresholds are fixed.
func BandFor(percent int) Band {
	switch {
	case percent >= atCapacityOccupancyPercent:
		return BandAtCapacity
	case percent >= healthyOccupancyPercent:
		return BandHealthy
	default:
		return BandLowUtilization
	}
}

// Occupancy is the load of a panel over a window.
type Occupancy struct {
	Count   int  `json:"count"`
	Percent int  `json:"percent"`
	Band    Band `json:"band"`
}

// Engine applies Rules to snapshots.
type Engine struct {
	rules Rules
}

// NewEngine creates an engine; zero rule fields take their defaults.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules.WithDefaults()}
}

// Rules returns the effective rules.
func (e *Engine) Rules() Rules {
	return e.rules
}

// QuotaFor returns the asset's capacity quota, or the default when unset.
func (e *Engine) QuotaFor(asset *models.Asset) int {
	if asset == nil || asset.CapacityQuota == nil {
		return e.rules.DefaultCapacityQuota
	}
	return *asset.CapacityQuota
}

// Occupancy counts bookings overlapping [start, end] once each and relates them to quota.
// A quota of zero or less yields percent 0.
func (e *Engine) Occupancy(snap *Snapshot, assetID uuid.UUID, start, end string, quota int) Occupancy {
	count := len(snap.BookingsInRange(assetID, start, end))
	percent := 0
	if quota > 0 {
		percent = int(math.Floor(float64(count)/float64(quota)*100 + 0.5))
	}
	return Occupancy{Count: count, Percent: percent, Band: BandFor(percent)}
}

// QuoteLookup resolves a booking's campaign.
type QuoteLookup func(id uuid.UUID) (models.Quote, bool)

// CampaignKey identifies a campaign for deduplication: its id, or name and client when it has none.
func CampaignKey(q models.Quote) string {
	if q.ID != uuid.Nil {
		return q.ID.String()
	}
	return q.Name + "|" + q.ClientName
}

// PendingMediaCount counts distinct campaigns whose media has not been received.
func PendingMediaCount(campaigns []models.Quote) int {
	seen := make(map[string]struct{})
	for _, q := range campaigns {
		if q.MediaStatus == models.MediaStatusReceived {
			continue
		}
		seen[CampaignKey(q)] = struct{}{}
	}
	return len(seen)
}

// PendingMedia counts distinct campaigns without received media among the asset's bookings
// overlapping [start, end]. Bookings without a campaign, or whose campaign cannot be found, are skipped.
func (e *Engine) PendingMedia(snap *Snapshot, assetID uuid.UUID, start, end string, lookup QuoteLookup) int {
	var campaigns []models.Quote
	for _, it := range snap.BookingsInRange(assetID, start, end) {
		if it.QuoteID == nil || lookup == nil {
			continue
		}
		if q, ok := lookup(*it.QuoteID); ok {
			campaigns = append(campaigns, q)
		}
	}
	return PendingMediaCount(campaigns)
}
