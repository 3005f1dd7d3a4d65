package models

import (
	"time"

	"github.com/google/uuid"
)

// Weekday codes indexed by time.Weekday (0 = Sunday).
var WeekdayCodes = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// PlaylistItem is a recurring booking of approved media on a panel.
// Dates are inclusive calendar dates in YYYY-MM-DD form.
type PlaylistItem struct {
	ID         uuid.UUID  `json:"id"`
	AssetID    uuid.UUID  `json:"asset_id"`
	MediaID    uuid.UUID  `json:"media_id"`
	QuoteID    *uuid.UUID `json:"quote_id,omitempty"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	DaysOfWeek []string   `json:"days_of_week"`
	Priority   int        `json:"priority"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PlaysOn reports whether the booking's weekday set contains wd.
func (p *PlaylistItem) PlaysOn(wd time.Weekday) bool {
	if wd < time.Sunday || wd > time.Saturday {
		return false
	}
	code := WeekdayCodes[wd]
	for _, d := range p.DaysOfWeek {
		if d == code {
			return true
		}
	}
	return false
}
