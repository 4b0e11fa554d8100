package restaurant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOpeningHours(t *testing.T) {
	t.Parallel()

	t.Run("valid week", func(t *testing.T) {
		t.Parallel()
		hours := OpeningHours{
			"monday":  {Open: "09:00", Close: "22:00"},
			"tuesday": {Closed: true},
			"sunday":  {Open: "18:00", Close: "02:00"},
		}
		assert.NoError(t, validateOpeningHours(hours))
	})

	t.Run("unknown weekday", func(t *testing.T) {
		t.Parallel()
		err := validateOpeningHours(OpeningHours{"funday": {Open: "09:00", Close: "17:00"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidHours)
	})

	t.Run("open day missing times", func(t *testing.T) {
		t.Parallel()
		err := validateOpeningHours(OpeningHours{"monday": {Open: "09:00"}})
		assert.ErrorIs(t, err, ErrInvalidHours)
	})

	t.Run("bad time format", func(t *testing.T) {
		t.Parallel()
		err := validateOpeningHours(OpeningHours{"monday": {Open: "9am", Close: "22:00"}})
		assert.ErrorIs(t, err, ErrInvalidHours)
	})

	t.Run("nil hours allowed", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validateOpeningHours(nil))
	})
}

func TestIsOpenAt(t *testing.T) {
	t.Parallel()

	r := &Restaurant{OpeningHours: OpeningHours{
		"monday": {Open: "09:00", Close: "22:00"},
		"friday": {Open: "18:00", Close: "02:00"},
		"sunday": {Closed: true},
	}}

	// 2025-06-02 is a Monday, 2025-06-06 a Friday, 2025-06-08 a Sunday
	monday := func(hour, min int) time.Time {
		return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
	}
	friday := func(hour, min int) time.Time {
		return time.Date(2025, 6, 6, hour, min, 0, 0, time.UTC)
	}

	assert.True(t, IsOpenAt(r, monday(9, 0)))
	assert.True(t, IsOpenAt(r, monday(21, 59)))
	assert.False(t, IsOpenAt(r, monday(22, 0)))
	assert.False(t, IsOpenAt(r, monday(8, 59)))

	// Friday hours span midnight
	assert.True(t, IsOpenAt(r, friday(23, 30)))
	assert.False(t, IsOpenAt(r, friday(12, 0)))

	// Closed day
	assert.False(t, IsOpenAt(r, time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)))

	// Day without recorded hours falls open
	assert.True(t, IsOpenAt(r, time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)))

	// Restaurant with no hours at all is always open
	assert.True(t, IsOpenAt(&Restaurant{}, monday(3, 0)))
}
