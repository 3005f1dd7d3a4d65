package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/schedule"
)

type fakeStore map[uuid.UUID]*models.Asset

func (f fakeStore) List(ctx context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range f {
		out = append(out, *a)
	}
	return out, nil
}

func (f fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, apperr.ErrNotFound
}

type fakeBookings []models.PlaylistItem

func (f fakeBookings) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.PlaylistItem, error) {
	var out []models.PlaylistItem
	for _, it := range f {
		if it.AssetID == assetID {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeQuotes []models.Quote

func (f fakeQuotes) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Quote, error) {
	want := make(map[uuid.UUID]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Quote
	for _, q := range f {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func booking(asset uuid.UUID, quote *uuid.UUID, start, end string) models.PlaylistItem {
	return models.PlaylistItem{ID: uuid.New(), AssetID: asset, QuoteID: quote, StartDate: start, EndDate: end, DaysOfWeek: []string{"mon", "tue"}}
}

func TestOccupancyReport(t *testing.T) {
	asset := uuid.New()
	pendingQuote, receivedQuote := uuid.New(), uuid.New()
	var items fakeBookings
	for i := 0; i < 9; i++ {
		q := &pendingQuote
		if i%3 == 0 {
			q = &receivedQuote
		}
		items = append(items, booking(asset, q, "2024-06-01", "2024-06-30"))
	}
	items = append(items, booking(asset, nil, "2024-08-01", "2024-08-31"))
	quotes := fakeQuotes{
		{ID: pendingQuote, MediaStatus: models.MediaStatusPending},
		{ID: receivedQuote, MediaStatus: models.MediaStatusReceived},
	}
	svc := NewService(fakeStore{asset: {ID: asset}}, items, quotes, schedule.NewEngine(schedule.DefaultRules()))

	report, err := svc.Occupancy(context.Background(), asset, "2024-06-10", "2024-06-16")
	require.NoError(t, err)
	assert.Equal(t, 18, report.Quota)
	assert.Equal(t, 9, report.Count)
	assert.Equal(t, 50, report.Percent)
	assert.Equal(t, schedule.BandLowUtilization, report.Band)
	assert.Equal(t, 1, report.PendingMedia)
	assert.Contains(t, report.Warning, "9 bookings")
}

func TestOccupancyUsesAssetQuota(t *testing.T) {
	asset := uuid.New()
	quota := 4
	items := fakeBookings{
		booking(asset, nil, "2024-06-01", "2024-06-30"),
		booking(asset, nil, "2024-06-01", "2024-06-30"),
		booking(asset, nil, "2024-06-01", "2024-06-30"),
	}
	svc := NewService(fakeStore{asset: {ID: asset, CapacityQuota: &quota}}, items, nil, schedule.NewEngine(schedule.Rules{}))

	report, err := svc.Occupancy(context.Background(), asset, "2024-06-01", "2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, 75, report.Percent)
	assert.Equal(t, schedule.BandHealthy, report.Band)
	assert.Zero(t, report.PendingMedia)

	zero := 0
	svc = NewService(fakeStore{asset: {ID: asset, CapacityQuota: &zero}}, items, nil, schedule.NewEngine(schedule.Rules{}))
	report, err = svc.Occupancy(context.Background(), asset, "2024-06-01", "2024-06-01")
	require.NoError(t, err)
	assert.Zero(t, report.Percent)
}

func TestOccupancyInputErrors(t *testing.T) {
	asset := uuid.New()
	svc := NewService(fakeStore{asset: {ID: asset}}, fakeBookings{}, nil, schedule.NewEngine(schedule.Rules{}))

	_, err := svc.Occupancy(context.Background(), asset, "2024-06-30", "2024-06-01")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Occupancy(context.Background(), asset, "2024-6-1", "2024-06-01")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Occupancy(context.Background(), uuid.New(), "2024-06-01", "2024-06-01")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBookingsHonourWeekdays(t *testing.T) {
	asset := uuid.New()
	items := fakeBookings{booking(asset, nil, "2024-06-01", "2024-06-30")}
	svc := NewService(fakeStore{asset: {ID: asset}}, items, nil, schedule.NewEngine(schedule.Rules{}))

	list, err := svc.Bookings(context.Background(), asset, "2024-06-03") // Monday
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.Bookings(context.Background(), asset, "2024-06-05") // Wednesday
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHandlerOccupancy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	asset := uuid.New()
	svc := NewService(fakeStore{asset: {ID: asset}}, fakeBookings{booking(asset, nil, "2024-06-01", "2024-06-30")}, nil, schedule.NewEngine(schedule.Rules{}))
	h := NewHandler(svc)
	r := gin.New()
	r.GET("/assets/:id", h.GetByID)
	r.GET("/assets/:id/occupancy", h.Occupancy)
	r.GET("/assets/:id/bookings", h.Bookings)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/"+asset.String()+"/occupancy?start=2024-06-01&end=2024-06-07", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Data["count"])
	assert.EqualValues(t, 6, resp.Data["percent"])
	assert.Equal(t, "low_utilization", resp.Data["band"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/"+asset.String()+"/bookings?date=tomorrow", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
