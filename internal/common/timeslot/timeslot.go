// internal/common/timeslot/timeslot.go
// Wall-clock time slot classification for dining times.
//
// A dining time is stored as a "HH:MM" string. Slots:
//
//	morning   05:00 - 11:59
//	afternoon 12:00 - 17:59
//	night     18:00 - 04:59 (wraps midnight)

package timeslot

import (
	"fmt"
	"strconv"
	"strings"
)

type Slot string

const (
	Morning   Slot = "morning"
	Afternoon Slot = "afternoon"
	Night     Slot = "night"
)

type slotRange struct {
	start float64
	end   float64
}

var slotRanges = map[Slot]slotRange{
	Morning:   {start: 5, end: 11.59},
	Afternoon: {start: 12, end: 17.59},
	Night:     {start: 18, end: 4.59}, // wraps around midnight
}

// Valid reports whether s is a known slot value.
func Valid(s Slot) bool {
	_, ok := slotRanges[s]
	return ok
}

// Classify maps a "HH:MM" time string to its slot. Anything that does not
// parse as a morning or afternoon time, including malformed input, falls
// through to Night. Callers that need strict validation must validate the
// time string at the boundary.
func Classify(timeString string) Slot {
	hours, minutes := splitTime(timeString)
	timeDecimal := float64(hours) + float64(minutes)/60

	switch {
	case timeDecimal >= 5 && timeDecimal < 12:
		return Morning
	case timeDecimal >= 12 && timeDecimal < 18:
		return Afternoon
	default:
		return Night
	}
}

// RangeCondition builds a SQL predicate testing whether the leading hour of
// a "HH:MM" column falls inside the slot. The night slot spans midnight, so
// it becomes a disjunction of two sub-ranges. Boundary policy mirrors the
// data already in production: inclusive on the low end, exclusive above the
// floored range end plus one.
func RangeCondition(slot Slot, column string) string {
	hourExpr := fmt.Sprintf("CAST(SUBSTRING(%s FROM 1 FOR 2) AS INTEGER)", column)

	if slot == Night {
		return fmt.Sprintf("((%s >= 18 AND %s <= 23) OR (%s >= 0 AND %s < 5))",
			hourExpr, hourExpr, hourExpr, hourExpr)
	}

	r := slotRanges[slot]
	startHour := int(r.start)
	endHour := int(r.end)
	return fmt.Sprintf("(%s >= %d AND %s < %d)", hourExpr, startHour, hourExpr, endHour+1)
}

func splitTime(timeString string) (hours, minutes int) {
	parts := strings.SplitN(timeString, ":", 2)
	if len(parts) > 0 {
		hours, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minutes, _ = strconv.Atoi(parts[1])
	}
	return hours, minutes
}
