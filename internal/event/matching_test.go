package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemates/tablemates-backend/internal/config"
	"github.com/tablemates/tablemates-backend/internal/profile"
)

func defaultWeights() config.ScoreWeights {
	return config.ScoreWeights{
		Interest:          3,
		Goal:              2,
		Soft:              1,
		Location:          2,
		TimeOverlapHigh:   2,
		TimeOverlapMedium: 1,
	}
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestDiceSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, diceSimilarity("wine", "wine"))
	assert.Equal(t, 0.0, diceSimilarity("wine", "golf"))
	assert.Equal(t, 0.0, diceSimilarity("a", "ab"))

	// Symmetric
	ab := diceSimilarity("wine tasting", "an evening of wine")
	ba := diceSimilarity("an evening of wine", "wine tasting")
	assert.Equal(t, ab, ba)

	// Normalized to [0,1]
	assert.Greater(t, ab, 0.0)
	assert.Less(t, ab, 1.0)
}

func TestScoreEvent_InterestsSumNotAverage(t *testing.T) {
	t.Parallel()

	engine := NewMatchingEngine(defaultWeights(), 5)
	window := Window{
		From: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
	}
	e := &Event{
		Title:       "Wine tasting downtown",
		Description: "An evening of wine and cheese pairing",
		StartDate:   time.Date(2025, 8, 10, 19, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 8, 10, 22, 0, 0, 0, time.UTC),
	}

	one := &profile.Profile{Interests: []string{"wine"}}
	two := &profile.Profile{Interests: []string{"wine", "cheese"}}

	// Adding an interest can only raise the score
	assert.GreaterOrEqual(t, engine.ScoreEvent(two, e, window), engine.ScoreEvent(one, e, window))
}

func TestScoreEvent_LocationBonus(t *testing.T) {
	t.Parallel()

	engine := NewMatchingEngine(defaultWeights(), 5)
	window := Window{}

	base := &Event{
		Title:     "Dinner",
		StartDate: time.Date(2025, 8, 10, 19, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 10, 21, 0, 0, 0, time.UTC),
	}

	near := *base
	near.Latitude = floatPtr(51.5074)
	near.Longitude = floatPtr(-0.1278)

	far := *base
	far.Latitude = floatPtr(48.8566)
	far.Longitude = floatPtr(2.3522)

	p := &profile.Profile{
		Latitude:  floatPtr(51.5080),
		Longitude: floatPtr(-0.1280),
	}

	nearScore := engine.ScoreEvent(p, &near, window)
	farScore := engine.ScoreEvent(p, &far, window)
	assert.Equal(t, 2.0, nearScore-farScore)

	// Missing coordinates on either side means no bonus
	noLoc := engine.ScoreEvent(&profile.Profile{}, &near, window)
	assert.Equal(t, farScore, noLoc)
}

func TestScoreEvent_TimeOverlapTiers(t *testing.T) {
	t.Parallel()

	engine := NewMatchingEngine(defaultWeights(), 5)

	e := &Event{
		StartDate: time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 10, 22, 0, 0, 0, time.UTC),
	}
	p := &profile.Profile{}

	full := Window{
		From: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC),
	}
	// 1.5h of a 4h event = 0.375, the medium tier
	partial := Window{
		From: time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 10, 19, 30, 0, 0, time.UTC),
	}
	none := Window{
		From: time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, 2.0, engine.ScoreEvent(p, e, full))
	assert.Equal(t, 1.0, engine.ScoreEvent(p, e, partial))
	assert.Equal(t, 0.0, engine.ScoreEvent(p, e, none))

	// Zero-duration events score 0 regardless of window
	empty := &Event{StartDate: e.StartDate, EndDate: e.StartDate}
	assert.Equal(t, 0.0, engine.ScoreEvent(p, empty, full))
}

func TestFindBestMatch_DeterministicTieBreak(t *testing.T) {
	t.Parallel()

	engine := NewMatchingEngine(defaultWeights(), 5)
	p := &profile.Profile{}
	window := Window{}

	early := &Event{ID: 7, StartDate: time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC)}
	late := &Event{ID: 3, StartDate: time.Date(2025, 8, 12, 18, 0, 0, 0, time.UTC)}
	sameDayHigherID := &Event{ID: 9, StartDate: early.StartDate}

	// All score identically, so start date then id decides
	best, ok := engine.FindBestMatch(p, []*Event{late, sameDayHigherID, early}, window)
	require.True(t, ok)
	assert.Equal(t, int64(7), best.Event.ID)

	// The winner must not depend on input order
	best2, ok := engine.FindBestMatch(p, []*Event{sameDayHigherID, early, late}, window)
	require.True(t, ok)
	assert.Equal(t, best.Event.ID, best2.Event.ID)
}

func TestFindBestMatch_EmptyPool(t *testing.T) {
	t.Parallel()

	engine := NewMatchingEngine(defaultWeights(), 5)
	_, ok := engine.FindBestMatch(&profile.Profile{}, nil, Window{})
	assert.False(t, ok)
}

func TestFindBestMatch_PrefersRelevantEvent(t *testing.T) {
	t.Parallel()

	engine := NewMatchingEngine(defaultWeights(), 5)
	p := &profile.Profile{
		Interests:  []string{"wine tasting"},
		Goals:      []string{"networking"},
		Profession: strPtr("sommelier"),
	}
	window := Window{
		From: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	}

	wine := &Event{
		ID:          1,
		Title:       "Wine tasting and networking night",
		Description: "Meet fellow wine lovers",
		StartDate:   time.Date(2025, 8, 10, 19, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 8, 10, 22, 0, 0, 0, time.UTC),
	}
	chess := &Event{
		ID:          2,
		Title:       "Blitz chess tournament",
		Description: "Rapid games all evening",
		StartDate:   time.Date(2025, 8, 9, 19, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 8, 9, 22, 0, 0, 0, time.UTC),
	}

	best, ok := engine.FindBestMatch(p, []*Event{chess, wine}, window)
	require.True(t, ok)
	assert.Equal(t, int64(1), best.Event.ID)
	assert.Greater(t, best.Score, 0.0)
}

func TestHaversineDistance(t *testing.T) {
	t.Parallel()

	// London to Paris is roughly 344 km
	d := haversineDistance(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 344, d, 10)

	assert.Equal(t, 0.0, haversineDistance(51.5, -0.1, 51.5, -0.1))
}

func TestOverlapRatio(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 8, 10, 18, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	assert.Equal(t, 1.0, overlapRatio(start, end, start.Add(-time.Hour), end.Add(time.Hour)))
	assert.Equal(t, 0.5, overlapRatio(start, end, start, start.Add(2*time.Hour)))
	assert.Equal(t, 0.0, overlapRatio(start, end, end, end.Add(time.Hour)))
	assert.Equal(t, 0.0, overlapRatio(start, start, start, end))
}
