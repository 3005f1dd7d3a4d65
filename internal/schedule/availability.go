package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/dooh-ops/backend/internal/models"
)

// DateLayout is the canonical calendar date form. Lexicographic order on it is chronological.
const DateLayout = "2006-01-02"

// DateKey formats t as a canonical date in t's own location, so a local midnight never
// shifts to the previous day.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical date. It rejects anything not already in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, bool) {
	if len(s) != len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// OccursOn reports whether item plays on day: day within [StartDate, EndDate] and its weekday
// in DaysOfWeek. Malformed dates yield false.
func OccursOn(item models.PlaylistItem, day string) bool {
	d, ok := ParseDate(day)
	if !ok {
		return false
	}
	if _, ok := ParseDate(item.StartDate); !ok {
		return false
	}
	if _, ok := ParseDate(item.EndDate); !ok {
		return false
	}
	if day < item.StartDate || day > item.EndDate {
		return false
	}
	return item.PlaysOn(d.Weekday())
}

// Overlaps reports whether the closed ranges [item.StartDate, item.EndDate] and [start, end]
// intersect. Weekdays are ignored.
func Overlaps(item models.PlaylistItem, start, end string) bool {
	return item.StartDate <= end && item.EndDate >= start
}

// Snapshot is an immutable view of bookings fetched once from the store.
type Snapshot struct {
	items []models.PlaylistItem
}

// NewSnapshot copies items into a snapshot.
func NewSnapshot(items []models.PlaylistItem) *Snapshot {
	cp := make([]models.PlaylistItem, len(items))
	copy(cp, items)
	return &Snapshot{items: cp}
}

// Items returns the bookings in the snapshot.
func (s *Snapshot) Items() []models.PlaylistItem {
	return s.items
}

// Len returns the number of bookings.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// BookingsFor returns the asset's bookings that play on day.
func (s *Snapshot) BookingsFor(assetID uuid.UUID, day string) []models.PlaylistItem {
	var out []models.PlaylistItem
	for _, it := range s.items {
		if it.AssetID == assetID && OccursOn(it, day) {
			out = append(out, it)
		}
	}
	return out
}

// BookingsInRange returns the asset's bookings whose date range overlaps [start, end] at all.
// It is coarser than BookingsFor: weekdays are not considered.
func (s *Snapshot) BookingsInRange(assetID uuid.UUID, start, end string) []models.PlaylistItem {
	var out []models.PlaylistItem
	for _, it := range s.items {
		if it.AssetID == assetID && Overlaps(it, start, end) {
			out = append(out, it)
		}
	}
	return out
}

// Grid groups the bookings playing on day by asset.
func (s *Snapshot) Grid(day string) map[uuid.UUID][]models.PlaylistItem {
	grid := make(map[uuid.UUID][]models.PlaylistItem)
	for _, it := range s.items {
		if OccursOn(it, day) {
			grid[it.AssetID] = append(grid[it.AssetID], it)
		}
	}
	return grid
}
