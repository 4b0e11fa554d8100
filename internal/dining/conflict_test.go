package dining

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func window(id int64, start time.Time, minutes int) TimeWindow {
	return TimeWindow{
		ID:    id,
		Start: start,
		End:   start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestHasConflict_BufferedOverlap(t *testing.T) {
	t.Parallel()

	// Existing accepted engagement 19:00 for 90 minutes ends at 20:30
	existing := []TimeWindow{
		window(1, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), 90),
	}

	// Candidate at 21:00: only 30 minutes after the existing end, inside
	// the 2 hour buffer
	candidate := window(2, time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC), 60)
	assert.True(t, HasConflict(candidate, existing, ConflictBuffer))

	// Candidate at 23:00: 2.5 hours after the existing end
	clear := window(3, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), 60)
	assert.False(t, HasConflict(clear, existing, ConflictBuffer))
}

func TestHasConflict_Symmetric(t *testing.T) {
	t.Parallel()

	a := window(1, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), 90)
	b := window(2, time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC), 60)

	assert.Equal(t,
		HasConflict(a, []TimeWindow{b}, ConflictBuffer),
		HasConflict(b, []TimeWindow{a}, ConflictBuffer))
}

func TestHasConflict_SelfExcluded(t *testing.T) {
	t.Parallel()

	self := window(7, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), 90)
	assert.False(t, HasConflict(self, []TimeWindow{self}, ConflictBuffer))
}

func TestHasConflict_DirectOverlap(t *testing.T) {
	t.Parallel()

	existing := []TimeWindow{
		window(1, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), 120),
	}
	candidate := window(2, time.Date(2024, 1, 1, 19, 30, 0, 0, time.UTC), 60)
	assert.True(t, HasConflict(candidate, existing, ConflictBuffer))
}

func TestHasConflict_EmptyExisting(t *testing.T) {
	t.Parallel()

	candidate := window(1, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), 60)
	assert.False(t, HasConflict(candidate, nil, ConflictBuffer))
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTransition(StatusPending, StatusAccepted))
	assert.True(t, CanTransition(StatusPending, StatusDeclined))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusAccepted, StatusConfirmed))
	assert.True(t, CanTransition(StatusAccepted, StatusCompleted))
	assert.True(t, CanTransition(StatusAccepted, StatusCancelled))
	assert.True(t, CanTransition(StatusConfirmed, StatusCompleted))
	assert.True(t, CanTransition(StatusConfirmed, StatusCancelled))

	assert.False(t, CanTransition(StatusPending, StatusConfirmed))
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusConfirmed, StatusAccepted))

	for _, terminal := range []DiningStatus{StatusCompleted, StatusDeclined, StatusCancelled} {
		assert.True(t, IsTerminal(terminal))
		for _, to := range []DiningStatus{StatusPending, StatusAccepted, StatusConfirmed, StatusCompleted, StatusCancelled} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestDiningWindowHelpers(t *testing.T) {
	t.Parallel()

	d := &Dining{
		Date:              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Time:              "19:00",
		EstimatedDuration: 90,
	}

	assert.Equal(t, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC), d.StartsAt())
	assert.Equal(t, time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC), d.EndsAt())

	past := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	d.Status = StatusPending
	d.ExpiresAt = &past
	assert.True(t, d.Expired(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	d.Status = StatusAccepted
	assert.False(t, d.Expired(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}
