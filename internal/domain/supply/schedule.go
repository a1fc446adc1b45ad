// Package supply knows the fixed daily delivery schedule: the three slots a
// household can register for and the next delivery after a given instant.
package supply

import (
	"math"
	"time"
)

type Slot int

const (
	Slot8  Slot = 8
	Slot12 Slot = 12
	Slot15 Slot = 15
)

const (
	DateLayout = "2006-01-02"

	// detailsLookupHour is the hour registration lookups are pinned to,
	// always on the previous day.
	detailsLookupHour = 7
)

func (s Slot) Valid() bool {
	return s == Slot8 || s == Slot12 || s == Slot15
}

type Delivery struct {
	Hour   int
	Minute int
	Label  string
}

var deliveries = []Delivery{
	{Hour: 8, Label: "8 AM"},
	{Hour: 12, Label: "12 PM"},
	{Hour: 15, Label: "3 PM"},
}

// SlotAt buckets t's local hour. After 15:00 no slot is open for the day.
func SlotAt(t time.Time) (Slot, bool) {
	switch hour := t.Hour(); {
	case hour < 8:
		return Slot8, true
	case hour < 12:
		return Slot12, true
	case hour < 15:
		return Slot15, true
	default:
		return 0, false
	}
}

// ServiceDate is the civil date of t in its own location.
func ServiceDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DetailsLookup returns the date and slot registration details are read from:
// yesterday at 07:00. This differs from the live-clock slot used when
// registering and is kept as observed until product decides otherwise.
func DetailsLookup(now time.Time) (string, Slot) {
	y, m, d := now.Date()
	pinned := time.Date(y, m, d-1, detailsLookupHour, 0, 0, 0, now.Location())
	slot, _ := SlotAt(pinned)
	return ServiceDate(pinned), slot
}

type NextSupply struct {
	At    time.Time
	Label string
	Hours int
}

// Next finds the first delivery strictly after now; if the day's deliveries
// are over it reports tomorrow's first one.
func Next(now time.Time) NextSupply {
	y, m, d := now.Date()
	for _, delivery := range deliveries {
		at := time.Date(y, m, d, delivery.Hour, delivery.Minute, 0, 0, now.Location())
		if at.After(now) {
			return NextSupply{At: at, Label: delivery.Label, Hours: hoursUntil(now, at)}
		}
	}

	first := deliveries[0]
	at := time.Date(y, m, d+1, first.Hour, first.Minute, 0, 0, now.Location())
	return NextSupply{At: at, Label: first.Label, Hours: hoursUntil(now, at)}
}

func hoursUntil(now, at time.Time) int {
	minutes := int(at.Sub(now) / time.Minute)
	hours := int(math.Ceil(float64(minutes) / 60))
	if hours < 1 {
		return 1
	}
	return hours
}
