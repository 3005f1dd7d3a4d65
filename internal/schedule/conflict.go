package schedule

import (
	"fmt"

	"github.com/google/uuid"
)

// CheckSoftConflict warns when more than SoftConflictThreshold existing bookings overlap the
// proposed window on the asset. It never blocks a submission.
func (e *Engine) CheckSoftConflict(snap *Snapshot, assetID uuid.UUID, start, end string) (string, bool) {
	existing := snap.BookingsInRange(assetID, start, end)
	if len(existing) <= e.rules.SoftConflictThreshold {
		return "", false
	}
	return fmt.Sprintf("panel is busy: %d bookings already overlap %s to %s", len(existing), start, end), true
}
