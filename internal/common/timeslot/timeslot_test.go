package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		time string
		want Slot
	}{
		{"05:00", Morning},
		{"11:59", Morning},
		{"12:00", Afternoon},
		{"17:59", Afternoon},
		{"18:00", Night},
		{"23:30", Night},
		{"00:30", Night},
		{"04:59", Night},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.time), "Classify(%q)", tc.time)
	}
}

func TestClassify_MalformedInputFallsThroughToNight(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "not-a-time", "99:99", "ab:cd"} {
		assert.Equal(t, Night, Classify(input), "Classify(%q)", input)
	}
}

func TestRangeCondition_MorningAndAfternoon(t *testing.T) {
	t.Parallel()

	morning := RangeCondition(Morning, "dining_time")
	assert.Contains(t, morning, ">= 5")
	assert.Contains(t, morning, "< 12")

	afternoon := RangeCondition(Afternoon, "dining_time")
	assert.Contains(t, afternoon, ">= 12")
	assert.Contains(t, afternoon, "< 18")
}

func TestRangeCondition_NightWrapsMidnight(t *testing.T) {
	t.Parallel()

	night := RangeCondition(Night, "dining_time")
	assert.Contains(t, night, ">= 18")
	assert.Contains(t, night, "<= 23")
	assert.Contains(t, night, ">= 0")
	assert.Contains(t, night, "< 5")
	assert.Contains(t, night, " OR ")
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid(Morning))
	assert.True(t, Valid(Afternoon))
	assert.True(t, Valid(Night))
	assert.False(t, Valid(Slot("midnight")))
}
