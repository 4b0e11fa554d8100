package dining

import "time"

// ConflictBuffer is the minimum gap required between a participant's
// accepted engagements.
const ConflictBuffer = 2 * time.Hour

// TimeWindow is the absolute window of one engagement
type TimeWindow struct {
	ID    int64
	Start time.Time
	End   time.Time
}

// HasConflict reports whether the candidate window collides with any of
// the existing windows once the buffer is applied on both sides. The
// candidate's own id is skipped so re-checking a stored engagement does
// not conflict with itself. Pure predicate; callers decide what to do.
func HasConflict(candidate TimeWindow, existing []TimeWindow, buffer time.Duration) bool {
	for _, w := range existing {
		if w.ID != 0 && w.ID == candidate.ID {
			continue
		}
		if candidate.Start.Before(w.End.Add(buffer)) && w.Start.Add(-buffer).Before(candidate.End) {
			return true
		}
	}
	return false
}
