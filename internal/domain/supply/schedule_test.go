package supply

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	loc := time.FixedZone("IST", 5*3600+1800)
	return time.Date(2024, time.March, 10, hour, minute, 0, 0, loc)
}

func TestSlotAtBoundaries(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         Slot
		ok           bool
	}{
		{0, 0, Slot8, true},
		{7, 59, Slot8, true},
		{8, 0, Slot12, true},
		{11, 59, Slot12, true},
		{12, 0, Slot15, true},
		{14, 59, Slot15, true},
		{15, 0, 0, false},
		{23, 59, 0, false},
	}
	for _, tc := range cases {
		slot, ok := SlotAt(at(tc.hour, tc.minute))
		assert.Equal(t, tc.ok, ok, "%02d:%02d", tc.hour, tc.minute)
		assert.Equal(t, tc.want, slot, "%02d:%02d", tc.hour, tc.minute)
	}
}

func TestDetailsLookupUsesYesterdayMorning(t *testing.T) {
	date, slot := DetailsLookup(at(14, 0))
	assert.Equal(t, "2024-03-09", date)
	assert.Equal(t, Slot8, slot)

	firstOfMonth := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	date, _ = DetailsLookup(firstOfMonth)
	assert.Equal(t, "2024-02-29", date)
}

func TestNextSupply(t *testing.T) {
	next := Next(at(6, 30))
	assert.Equal(t, "8 AM", next.Label)
	assert.Equal(t, 2, next.Hours)

	next = Next(at(8, 0))
	assert.Equal(t, "12 PM", next.Label)
	assert.Equal(t, 4, next.Hours)

	next = Next(at(14, 59))
	assert.Equal(t, "3 PM", next.Label)
	assert.Equal(t, 1, next.Hours)
}

func TestNextSupplyRollsToTomorrow(t *testing.T) {
	next := Next(at(16, 0))
	require.Equal(t, "8 AM", next.Label)
	assert.Equal(t, 11, next.At.Day())
	assert.Equal(t, 16, next.Hours)

	next = Next(at(23, 30))
	assert.Equal(t, 9, next.Hours)
}
