// Package booking implements the booking lifecycle: validation,
// the status machine, and applying a booking's resource usage to the
// capacity ledger exactly once across its full date span.
package booking

import (
	"github.com/friluft/booking-server/internal/timeslot"
)

// DaySpan is the half-open slot range a booking occupies on one calendar
// day.  The same spans drive reserve on confirmation and release on
// completion or cancellation, so the two are exact inverses.
type DaySpan struct {
	Date      string
	StartSlot int
	EndSlot   int // exclusive
}

// Slots returns the number of intervals the span covers.
func (d DaySpan) Slots() int { return d.EndSlot - d.StartSlot }

// BuildPlan computes the per-day slot ranges for a booking.  The first day
// runs from the start time to its own end time, or to end of day when the
// booking continues past midnight; middle days cover the whole day; the
// last day runs from midnight to the end time.  Days whose range collapses
// to nothing (an end time of 00:00 on the final day) are omitted.
//
// Errors are timeslot.ErrInvalidTimeFormat or timeslot.ErrInvalidRange; a
// single-day booking whose end does not lie after its start is an invalid
// range.
func BuildPlan(startDate, startTime, endDate, endTime string) ([]DaySpan, error) {
	startSlot, err := timeslot.TimeToSlot(startTime)
	if err != nil {
		return nil, err
	}
	endSlot, err := timeslot.TimeToSlot(endTime)
	if err != nil {
		return nil, err
	}
	days, err := timeslot.ExpandDates(startDate, endDate)
	if err != nil {
		return nil, err
	}

	if len(days) == 1 {
		if endSlot <= startSlot {
			return nil, timeslot.ErrInvalidRange
		}
		return []DaySpan{{Date: days[0], StartSlot: startSlot, EndSlot: endSlot}}, nil
	}

	plan := make([]DaySpan, 0, len(days))
	for i, day := range days {
		var span DaySpan
		switch {
		case i == 0:
			span = DaySpan{Date: day, StartSlot: startSlot, EndSlot: timeslot.SlotsPerDay}
		case i == len(days)-1:
			span = DaySpan{Date: day, StartSlot: 0, EndSlot: endSlot}
		default:
			span = DaySpan{Date: day, StartSlot: 0, EndSlot: timeslot.SlotsPerDay}
		}
		if span.Slots() <= 0 {
			continue
		}
		plan = append(plan, span)
	}
	return plan, nil
}
