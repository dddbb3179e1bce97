package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTimeSlots(t *testing.T) {
	require.Len(t, AllTimeSlots, 10)
	assert.Equal(t, "08:00 - 09:00", AllTimeSlots[0])
	assert.Equal(t, "18:00 - 19:00", AllTimeSlots[9])

	// The midday break is not schedulable.
	assert.NotContains(t, AllTimeSlots, "12:00 - 13:00")
}

func TestAvailableTimeSlots(t *testing.T) {
	t.Run("nothing booked returns the full universe in order", func(t *testing.T) {
		assert.Equal(t, AllTimeSlots, AvailableTimeSlots(nil))
	})

	t.Run("booked slots are removed, order preserved", func(t *testing.T) {
		available := AvailableTimeSlots([]string{"09:00 - 10:00", "15:00 - 16:00"})

		require.Len(t, available, 8)
		assert.NotContains(t, available, "09:00 - 10:00")
		assert.NotContains(t, available, "15:00 - 16:00")
		assert.Equal(t, "08:00 - 09:00", available[0])
		assert.Equal(t, "18:00 - 19:00", available[len(available)-1])
	})

	t.Run("unknown booked labels are ignored", func(t *testing.T) {
		available := AvailableTimeSlots([]string{"07:00 - 08:00", "not a slot", ""})
		assert.Equal(t, AllTimeSlots, available)
	})

	t.Run("everything booked leaves an empty list", func(t *testing.T) {
		available := AvailableTimeSlots(AllTimeSlots)
		assert.Empty(t, available)
	})
}

func TestIsCanonicalSlot(t *testing.T) {
	assert.True(t, IsCanonicalSlot("08:00 - 09:00"))
	assert.True(t, IsCanonicalSlot("18:00 - 19:00"))
	assert.False(t, IsCanonicalSlot("12:00 - 13:00"))
	assert.False(t, IsCanonicalSlot("08:00-09:00"))
	assert.False(t, IsCanonicalSlot(""))
}

func TestParseTimeSlot(t *testing.T) {
	slot, err := ParseTimeSlot("08:00 - 09:00")
	require.NoError(t, err)
	assert.Equal(t, "ts-08:00-09:00", slot.ID)
	assert.Equal(t, "08:00", slot.StartTime)
	assert.Equal(t, "09:00", slot.EndTime)

	// Same label, same identifier.
	again, err := ParseTimeSlot("08:00 - 09:00")
	require.NoError(t, err)
	assert.Equal(t, slot.ID, again.ID)

	_, err = ParseTimeSlot("08:00")
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)

	_, err = ParseTimeSlot(" - ")
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestWeekDayFromDate(t *testing.T) {
	cases := []struct {
		date string
		want WeekDay
	}{
		{"2025-06-02", Monday},
		{"2025-06-04", Wednesday},
		{"2025-06-07", Saturday},
		{"2025-06-08", Sunday},
	}
	for _, tc := range cases {
		day, err := WeekDayFromDate(tc.date)
		require.NoError(t, err, tc.date)
		assert.Equal(t, tc.want, day, tc.date)
	}

	_, err := WeekDayFromDate("06/02/2025")
	assert.Error(t, err)
}
