package event

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tablemates/tablemates-backend/internal/config"
	"github.com/tablemates/tablemates-backend/internal/profile"
)

// ScoredEvent pairs a candidate event with its relevance score
type ScoredEvent struct {
	Event *Event  `json:"event"`
	Score float64 `json:"score"`
}

// MatchingEngine scores candidate events against a diner profile
type MatchingEngine interface {
	ScoreEvent(p *profile.Profile, e *Event, window Window) float64
	FindBestMatch(p *profile.Profile, candidates []*Event, window Window) (*ScoredEvent, bool)
}

// Window is the availability window used for time-overlap scoring
type Window struct {
	From time.Time
	To   time.Time
}

type matchingEngine struct {
	weights      config.ScoreWeights
	nearbyRadius float64
}

// NewMatchingEngine creates a matching engine with explicit weights so
// scoring runs are deterministic and independently configurable.
func NewMatchingEngine(weights config.ScoreWeights, nearbyRadiusKm float64) MatchingEngine {
	return &matchingEngine{weights: weights, nearbyRadius: nearbyRadiusKm}
}

// ScoreEvent computes the weighted relevance of one event for a profile
func (m *matchingEngine) ScoreEvent(p *profile.Profile, e *Event, window Window) float64 {
	text := strings.ToLower(e.Title + " " + e.Description)

	var score float64

	// Interest and goal scores sum over all entries, so a richer profile
	// can only raise the score.
	for _, interest := range p.Interests {
		score += diceSimilarity(strings.ToLower(interest), text) * m.weights.Interest
	}
	for _, goal := range p.Goals {
		score += diceSimilarity(strings.ToLower(goal), text) * m.weights.Goal
	}
	for _, soft := range softAttributes(p) {
		score += diceSimilarity(strings.ToLower(soft), text) * m.weights.Soft
	}

	if p.Latitude != nil && p.Longitude != nil && e.Latitude != nil && e.Longitude != nil {
		distance := haversineDistance(*p.Latitude, *p.Longitude, *e.Latitude, *e.Longitude)
		if distance < m.nearbyRadius {
			score += m.weights.Location
		}
	}

	ratio := overlapRatio(e.StartDate, e.EndDate, window.From, window.To)
	switch {
	case ratio > 0.5:
		score += m.weights.TimeOverlapHigh
	case ratio > 0.25:
		score += m.weights.TimeOverlapMedium
	}

	return score
}

// FindBestMatch scores every candidate and returns the winner. Ties break
// on earlier start date, then lower id, so the result does not depend on
// the incoming candidate order.
func (m *matchingEngine) FindBestMatch(p *profile.Profile, candidates []*Event, window Window) (*ScoredEvent, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	scored := make([]*ScoredEvent, 0, len(candidates))
	for _, e := range candidates {
		scored = append(scored, &ScoredEvent{Event: e, Score: m.ScoreEvent(p, e, window)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Event.StartDate.Equal(scored[j].Event.StartDate) {
			return scored[i].Event.StartDate.Before(scored[j].Event.StartDate)
		}
		return scored[i].Event.ID < scored[j].Event.ID
	})

	return scored[0], true
}

func softAttributes(p *profile.Profile) []string {
	var attrs []string
	for _, field := range []*string{p.Bio, p.Profession, p.Industry, p.Gender} {
		if field != nil && *field != "" {
			attrs = append(attrs, *field)
		}
	}
	return attrs
}

// diceSimilarity returns the Sørensen–Dice coefficient over character
// bigrams, a symmetric similarity in [0,1]. Inputs shorter than two
// characters match only on equality.
func diceSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigramsA := countBigrams(a)
	bigramsB := countBigrams(b)

	var intersection, totalA, totalB int
	for bg, n := range bigramsA {
		totalA += n
		if m := bigramsB[bg]; m > 0 {
			if n < m {
				intersection += n
			} else {
				intersection += m
			}
		}
	}
	for _, n := range bigramsB {
		totalB += n
	}

	return 2 * float64(intersection) / float64(totalA+totalB)
}

func countBigrams(s string) map[string]int {
	runes := []rune(s)
	bigrams := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		bigrams[string(runes[i:i+2])]++
	}
	return bigrams
}

// haversineDistance returns the great-circle distance between two points
// in kilometers.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371 // km

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// overlapRatio returns the share of the event window covered by the
// availability window. Zero-duration events score 0.
func overlapRatio(eventStart, eventEnd, availFrom, availTo time.Time) float64 {
	duration := eventEnd.Sub(eventStart)
	if duration <= 0 {
		return 0
	}

	start := eventStart
	if availFrom.After(start) {
		start = availFrom
	}
	end := eventEnd
	if availTo.Before(end) {
		end = availTo
	}

	overlap := end.Sub(start)
	if overlap <= 0 {
		return 0
	}

	return float64(overlap) / float64(duration)
}
