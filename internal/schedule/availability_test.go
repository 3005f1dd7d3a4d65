package schedule

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooh-ops/backend/internal/models"
)

func booking(asset uuid.UUID, start, end string, days ...string) models.PlaylistItem {
	return models.PlaylistItem{
		ID:         uuid.New(),
		AssetID:    asset,
		MediaID:    uuid.New(),
		StartDate:  start,
		EndDate:    end,
		DaysOfWeek: days,
	}
}

func TestOccursOnWeekdays(t *testing.T) {
	b := booking(uuid.New(), "2024-06-01", "2024-06-10", "mon", "wed", "fri")

	tests := []struct {
		day  string
		want bool
	}{
		{"2024-06-03", true},  // Monday
		{"2024-06-04", false}, // Tuesday
		{"2024-06-05", true},  // Wednesday
		{"2024-06-07", true},  // Friday
		{"2024-06-10", true},  // Monday, last day
		{"2024-05-31", false}, // Friday before the range
		{"2024-06-14", false}, // Friday after the range
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, tt.want, OccursOn(b, tt.day))
		})
	}
}

func TestOccursOnMalformedDates(t *testing.T) {
	b := booking(uuid.New(), "2024-06-01", "2024-06-10", "mon")
	for _, day := range []string{"", "2024-6-3", "03/06/2024", "2024-13-01", "2024-06-03T00:00:00Z", "garbage"} {
		assert.False(t, OccursOn(b, day), day)
	}

	broken := booking(uuid.New(), "2024-06-01", "june", "mon")
	assert.False(t, OccursOn(broken, "2024-06-03"))
}

func TestWeekdayContainmentProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	asset := uuid.New()

	for i := 0; i < 2000; i++ {
		start := base.AddDate(0, 0, rng.Intn(365))
		end := start.AddDate(0, 0, rng.Intn(60))
		var days []string
		set := map[time.Weekday]bool{}
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if rng.Intn(2) == 0 {
				days = append(days, models.WeekdayCodes[wd])
				set[wd] = true
			}
		}
		b := booking(asset, DateKey(start), DateKey(end), days...)
		d := base.AddDate(0, 0, rng.Intn(450))

		want := !d.Before(start) && !d.After(end) && set[d.Weekday()]
		require.Equal(t, want, OccursOn(b, DateKey(d)), "booking %s..%s %v on %s", b.StartDate, b.EndDate, days, DateKey(d))
	}
}

func TestBookingsForScenario(t *testing.T) {
	a1 := uuid.New()
	b1 := booking(a1, "2024-06-01", "2024-06-10", "mon", "wed", "fri")
	other := booking(uuid.New(), "2024-06-01", "2024-06-10", "mon", "tue")
	snap := NewSnapshot([]models.PlaylistItem{b1, other})

	got := snap.BookingsFor(a1, "2024-06-03")
	require.Len(t, got, 1)
	assert.Equal(t, b1.ID, got[0].ID)

	assert.Empty(t, snap.BookingsFor(a1, "2024-06-04"))
}

func TestBookingsInRangeBoundaries(t *testing.T) {
	asset := uuid.New()
	b := booking(asset, "2024-06-01", "2024-06-10", "sun")
	snap := NewSnapshot([]models.PlaylistItem{b})

	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"window starts on booking end", "2024-06-10", "2024-06-20", 1},
		{"window starts the day after booking end", "2024-06-11", "2024-06-20", 0},
		{"window ends on booking start", "2024-05-20", "2024-06-01", 1},
		{"window ends the day before booking start", "2024-05-20", "2024-05-31", 0},
		{"window inside booking", "2024-06-03", "2024-06-04", 1},
		{"booking inside window", "2024-05-01", "2024-07-01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, snap.BookingsInRange(asset, tt.start, tt.end), tt.want)
		})
	}
}

func TestBookingsInRangeIgnoresWeekdays(t *testing.T) {
	asset := uuid.New()
	// Only Sundays, but the window is a single Tuesday.
	snap := NewSnapshot([]models.PlaylistItem{booking(asset, "2024-06-01", "2024-06-10", "sun")})
	assert.Len(t, snap.BookingsInRange(asset, "2024-06-04", "2024-06-04"), 1)
	assert.Empty(t, snap.BookingsFor(asset, "2024-06-04"))
}

func TestDateKeyKeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	late := time.Date(2024, 6, 3, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-06-03", DateKey(late))
	assert.Equal(t, "2024-06-04", DateKey(late.UTC()))
}

func TestSnapshotIsolatedFromCaller(t *testing.T) {
	asset := uuid.New()
	items := []models.PlaylistItem{booking(asset, "2024-06-01", "2024-06-10", "mon")}
	snap := NewSnapshot(items)
	items[0].AssetID = uuid.New()
	assert.Len(t, snap.BookingsFor(asset, "2024-06-03"), 1)
}

func TestGridGroupsByAsset(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	snap := NewSnapshot([]models.PlaylistItem{
		booking(a, "2024-06-01", "2024-06-30", "mon"),
		booking(a, "2024-06-01", "2024-06-30", "mon", "tue"),
		booking(b, "2024-06-01", "2024-06-30", "tue"),
	})
	grid := snap.Grid("2024-06-03")
	assert.Len(t, grid[a], 2)
	assert.Empty(t, grid[b])
}
