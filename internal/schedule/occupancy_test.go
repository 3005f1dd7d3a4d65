package schedule

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooh-ops/backend/internal/models"
)

func intPtr(n int) *int { return &n }

func TestOccupancyScenario(t *testing.T) {
	a1 := uuid.New()
	snap := NewSnapshot([]models.PlaylistItem{booking(a1, "2024-06-01", "2024-06-10", "mon", "wed", "fri")})
	e := NewEngine(DefaultRules())

	asset := &models.Asset{ID: a1, Resolution: "1920x1080", CapacityQuota: intPtr(18)}
	occ := e.Occupancy(snap, a1, "2024-06-01", "2024-06-30", e.QuotaFor(asset))
	assert.Equal(t, 1, occ.Count)
	assert.Equal(t, 6, occ.Percent)
	assert.Equal(t, BandLowUtilization, occ.Band)
}

func TestQuotaFor(t *testing.T) {
	e := NewEngine(Rules{})
	assert.Equal(t, 18, e.QuotaFor(nil))
	assert.Equal(t, 18, e.QuotaFor(&models.Asset{}))
	assert.Equal(t, 0, e.QuotaFor(&models.Asset{CapacityQuota: intPtr(0)}))
	assert.Equal(t, 24, e.QuotaFor(&models.Asset{CapacityQuota: intPtr(24)}))
}

func TestOccupancyZeroCapacity(t *testing.T) {
	asset := uuid.New()
	snap := NewSnapshot([]models.PlaylistItem{
		booking(asset, "2024-06-01", "2024-06-10", "mon"),
		booking(asset, "2024-06-05", "2024-06-20", "tue"),
	})
	e := NewEngine(DefaultRules())
	for _, quota := range []int{0, -3} {
		occ := e.Occupancy(snap, asset, "2024-06-01", "2024-06-30", quota)
		assert.Equal(t, 2, occ.Count)
		assert.Equal(t, 0, occ.Percent)
	}
}

func TestOccupancyCountsEachBookingOnce(t *testing.T) {
	asset := uuid.New()
	snap := NewSnapshot([]models.PlaylistItem{
		booking(asset, "2024-01-01", "2024-12-31", "sun", "mon", "tue", "wed", "thu", "fri", "sat"),
	})
	occ := NewEngine(DefaultRules()).Occupancy(snap, asset, "2024-06-01", "2024-06-30", 10)
	assert.Equal(t, 1, occ.Count)
	assert.Equal(t, 10, occ.Percent)
}

func TestOccupancyMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	asset := uuid.New()
	e := NewEngine(DefaultRules())
	var items []models.PlaylistItem
	prev := 0
	for i := 0; i < 200; i++ {
		startDay := 1 + rng.Intn(28)
		start := "2024-06-" + pad(startDay)
		end := "2024-06-" + pad(startDay+rng.Intn(29-startDay+1))
		items = append(items, booking(asset, start, end, "mon"))
		occ := e.Occupancy(NewSnapshot(items), asset, "2024-06-10", "2024-06-15", 18)
		require.GreaterOrEqual(t, occ.Count, prev)
		prev = occ.Count
	}
	for len(items) > 0 {
		items = items[:len(items)-1]
		occ := e.Occupancy(NewSnapshot(items), asset, "2024-06-10", "2024-06-15", 18)
		require.LessOrEqual(t, occ.Count, prev)
		prev = occ.Count
	}
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandLowUtilization, BandFor(0))
	assert.Equal(t, BandLowUtilization, BandFor(69))
	assert.Equal(t, BandHealthy, BandFor(70))
	assert.Equal(t, BandHealthy, BandFor(99))
	assert.Equal(t, BandAtCapacity, BandFor(100))
	assert.Equal(t, BandAtCapacity, BandFor(150))
}

func TestPendingMediaDeduplicatesCampaigns(t *testing.T) {
	asset := uuid.New()
	pendingQuote := models.Quote{ID: uuid.New(), Name: "Summer", ClientName: "Acme", MediaStatus: models.MediaStatusPending}
	receivedQuote := models.Quote{ID: uuid.New(), Name: "Winter", ClientName: "Acme", MediaStatus: models.MediaStatusReceived}
	rejectedQuote := models.Quote{ID: uuid.New(), Name: "Spring", ClientName: "Beta", MediaStatus: models.MediaStatusRejected}
	quotes := map[uuid.UUID]models.Quote{
		pendingQuote.ID:  pendingQuote,
		receivedQuote.ID: receivedQuote,
		rejectedQuote.ID: rejectedQuote,
	}

	withQuote := func(b models.PlaylistItem, q models.Quote) models.PlaylistItem {
		id := q.ID
		b.QuoteID = &id
		return b
	}
	snap := NewSnapshot([]models.PlaylistItem{
		withQuote(booking(asset, "2024-06-01", "2024-06-10", "mon"), pendingQuote),
		withQuote(booking(asset, "2024-06-05", "2024-06-15", "tue"), pendingQuote),
		withQuote(booking(asset, "2024-06-01", "2024-06-30", "wed"), receivedQuote),
		withQuote(booking(asset, "2024-06-01", "2024-06-30", "thu"), rejectedQuote),
		booking(asset, "2024-06-01", "2024-06-30", "fri"),
	})
	lookup := func(id uuid.UUID) (models.Quote, bool) {
		q, ok := quotes[id]
		return q, ok
	}

	e := NewEngine(DefaultRules())
	assert.Equal(t, 2, e.PendingMedia(snap, asset, "2024-06-01", "2024-06-30", lookup))
	assert.Equal(t, 0, e.PendingMedia(snap, asset, "2024-06-01", "2024-06-30", nil))
}

func TestPendingMediaCountFallsBackToNameAndClient(t *testing.T) {
	campaigns := []models.Quote{
		{Name: "Launch", ClientName: "Acme", MediaStatus: models.MediaStatusPending},
		{Name: "Launch", ClientName: "Acme", MediaStatus: models.MediaStatusPending},
		{Name: "Launch", ClientName: "Beta", MediaStatus: models.MediaStatusPending},
		{Name: "Done", ClientName: "Beta", MediaStatus: models.MediaStatusReceived},
	}
	assert.Equal(t, 2, PendingMediaCount(campaigns))
	assert.Equal(t, "Launch|Acme", CampaignKey(campaigns[0]))
}
