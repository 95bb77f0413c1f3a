// Package availability implements the read path consulted before a
// booking is confirmed: which start times on a given day still have
// enough remaining capacity for every requested resource across the whole
// requested duration.  It never mutates the ledger; the final word on
// capacity belongs to the ledger's own reserve guard.
package availability

import (
	"context"
	"errors"
	"math"

	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
	"github.com/friluft/booking-server/internal/timeslot"
)

// Candidate start times are offered on the half hour.
const stepSlots = 30 / timeslot.SlotMinutes

// ErrBadRequest is returned for an unusable query: unknown resource slug,
// non-positive amount or a duration that cannot fit the opening hours.
var ErrBadRequest = errors.New("invalid availability query")

// SnapshotSource loads one resource's full day row from the ledger.  A
// date without a row reads as all zeros.  *repository.LedgerRepo is the
// production implementation.
type SnapshotSource interface {
	DayRow(ctx context.Context, res *model.Resource, date string) ([timeslot.SlotsPerDay]int, error)
}

// Service answers start-time queries against the capacity ledger within
// the operator's opening hours.
type Service struct {
	registry  *repository.Registry
	ledger    SnapshotSource
	openSlot  int
	closeSlot int
}

// NewService builds a Service.  openTime and closeTime are "HH:MM" from
// configuration; closing at midnight is expressed as "00:00" and treated
// as end of day.
func NewService(registry *repository.Registry, ledger SnapshotSource, openTime, closeTime string) (*Service, error) {
	open, err := timeslot.TimeToSlot(openTime)
	if err != nil {
		return nil, err
	}
	closeSlot, err := timeslot.TimeToSlot(closeTime)
	if err != nil {
		return nil, err
	}
	if closeSlot == 0 {
		closeSlot = timeslot.SlotsPerDay
	}
	if closeSlot <= open {
		return nil, timeslot.ErrInvalidRange
	}
	return &Service{registry: registry, ledger: ledger, openSlot: open, closeSlot: closeSlot}, nil
}

// need pairs a resource and its loaded day row with the requested amount.
type need struct {
	res    *model.Resource
	amount int
	row    [timeslot.SlotsPerDay]int
}

// StartTimes returns the "HH:MM" start times, in ascending order, at which
// a booking of the given duration could reserve every requested resource.
// Amounts of zero are ignored; if nothing is requested every candidate
// within opening hours is returned.  Durations are hours and may be
// fractional (2.5 = two and a half hours).
func (s *Service) StartTimes(ctx context.Context, amounts map[string]int, date string, durationHours float64) ([]string, error) {
	durationSlots := int(math.Round(durationHours * 60 / timeslot.SlotMinutes))
	if durationSlots <= 0 || durationSlots > s.closeSlot-s.openSlot {
		return nil, ErrBadRequest
	}
	if _, err := timeslot.ExpandDates(date, date); err != nil {
		return nil, err
	}

	needs := make([]need, 0, len(amounts))
	for slug, amount := range amounts {
		if amount == 0 {
			continue
		}
		if amount < 0 {
			return nil, ErrBadRequest
		}
		res, err := s.registry.BySlug(slug)
		if err != nil {
			return nil, ErrBadRequest
		}
		row, err := s.ledger.DayRow(ctx, res, date)
		if err != nil {
			return nil, err
		}
		needs = append(needs, need{res: res, amount: amount, row: row})
	}

	starts := filterCandidates(s.openSlot, s.closeSlot, durationSlots, needs)
	out := make([]string, 0, len(starts))
	for _, c := range starts {
		out = append(out, timeslot.SlotToTime(c))
	}
	return out, nil
}

// filterCandidates enumerates candidate start slots every stepSlots from
// openSlot up to the last start whose span still ends by closeSlot, and
// keeps those where every requested resource clears every touched
// interval.  Evaluation short-circuits on the first failing cell.
func filterCandidates(openSlot, closeSlot, durationSlots int, needs []need) []int {
	var accepted []int
	for c := openSlot; c+durationSlots <= closeSlot; c += stepSlots {
		ok := true
		for _, n := range needs {
			for slot := c; slot < c+durationSlots; slot++ {
				if repository.Remaining(n.res, n.row, slot) < n.amount {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}
	return accepted
}
