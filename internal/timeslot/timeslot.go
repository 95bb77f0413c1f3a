// Package timeslot converts wall-clock times and calendar dates into the
// 15-minute interval grid used by the capacity ledger.  A day holds 96
// slots, indexed 0–95; slot 0 is 00:00–00:15.  All functions are pure.
package timeslot

import (
	"errors"
	"fmt"
	"time"
)

const (
	// SlotMinutes is the width of one ledger interval.
	SlotMinutes = 15
	// SlotsPerDay is the number of intervals in a calendar day.
	SlotsPerDay = 24 * 60 / SlotMinutes
)

// DateLayout is the calendar-date format used throughout the API and the
// ledger tables.
const DateLayout = "2006-01-02"

// ErrInvalidTimeFormat is returned when a time string is not "HH:MM" or
// lies outside 00:00–23:59.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// ErrInvalidRange is returned when a date range ends before it starts or a
// date string cannot be parsed.
var ErrInvalidRange = errors.New("invalid date range")

// TimeToSlot maps an "HH:MM" string to its slot index in [0, SlotsPerDay).
// Times inside a slot round down, so "14:10" maps to the same slot as
// "14:00".
func TimeToSlot(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidTimeFormat
	}
	return (t.Hour()*60 + t.Minute()) / SlotMinutes, nil
}

// SlotToMinutes returns the minute-of-day at which the given slot begins.
func SlotToMinutes(slot int) int {
	return slot * SlotMinutes
}

// SlotToTime formats the start of a slot as "HH:MM".
func SlotToTime(slot int) string {
	m := SlotToMinutes(slot)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IntervalsSpanned returns the number of slots a booking occupies on a
// single day.  When overnight is true the stay continues past midnight and
// the contribution is the remainder of the day from startSlot; otherwise it
// is the half-open span [startSlot, endSlot).  Multi-day totals are the
// caller's responsibility.
func IntervalsSpanned(startSlot, endSlot int, overnight bool) int {
	if overnight {
		return SlotsPerDay - startSlot
	}
	return endSlot - startSlot
}

// ExpandDates returns every calendar day from start to end inclusive, in
// ascending order.  Both arguments use DateLayout.  A range whose end
// precedes its start, or a malformed date, yields ErrInvalidRange.
func ExpandDates(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, ErrInvalidRange
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, ErrInvalidRange
	}
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}
