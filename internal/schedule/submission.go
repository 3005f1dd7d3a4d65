package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
)

const timeLayout = "15:04"

// Submission is a new booking as entered by the user.
type Submission struct {
	AssetID    uuid.UUID
	MediaID    uuid.UUID
	QuoteID    *uuid.UUID
	StartDate  string
	EndDate    string
	StartTime  string
	EndTime    string
	DaysOfWeek []string
	Priority   int
}

// ValidateSubmission rejects malformed bookings before anything is written.
func ValidateSubmission(s Submission) error {
	if s.AssetID == uuid.Nil {
		return apperr.Invalid("asset_id", "a panel must be selected")
	}
	if s.MediaID == uuid.Nil {
		return apperr.Invalid("media_id", "an approved media file must be selected")
	}
	if _, ok := ParseDate(s.StartDate); !ok {
		return apperr.Invalid("start_date", "%q is not a YYYY-MM-DD date", s.StartDate)
	}
	if _, ok := ParseDate(s.EndDate); !ok {
		return apperr.Invalid("end_date", "%q is not a YYYY-MM-DD date", s.EndDate)
	}
	if s.StartDate > s.EndDate {
		return apperr.Invalid("end_date", "end date %s is before start date %s", s.EndDate, s.StartDate)
	}
	if s.StartTime != "" {
		if _, err := time.Parse(timeLayout, s.StartTime); err != nil {
			return apperr.Invalid("start_time", "%q is not an HH:MM time", s.StartTime)
		}
	}
	if s.EndTime != "" {
		if _, err := time.Parse(timeLayout, s.EndTime); err != nil {
			return apperr.Invalid("end_time", "%q is not an HH:MM time", s.EndTime)
		}
	}
	if len(s.DaysOfWeek) == 0 {
		return apperr.Invalid("days_of_week", "at least one day of the week is required")
	}
	for _, d := range s.DaysOfWeek {
		if !isWeekdayCode(d) {
			return apperr.Invalid("days_of_week", "unknown day %q", d)
		}
	}
	return nil
}

// Item converts a validated submission into a booking, with weekdays deduplicated in
// Sunday-first order.
func (s Submission) Item() models.PlaylistItem {
	return models.PlaylistItem{
		AssetID:    s.AssetID,
		MediaID:    s.MediaID,
		QuoteID:    s.QuoteID,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		DaysOfWeek: normalizeDays(s.DaysOfWeek),
		Priority:   s.Priority,
	}
}

func isWeekdayCode(d string) bool {
	for _, c := range models.WeekdayCodes {
		if c == d {
			return true
		}
	}
	return false
}

func normalizeDays(days []string) []string {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	out := make([]string, 0, len(set))
	for _, c := range models.WeekdayCodes {
		if set[c] {
			out = append(out, c)
		}
	}
	return out
}
