package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/timeslot"
)

// LedgerRepo provides access to the per-resource capacity ledgers.  Each
// resource owns one table with a row per calendar date and one SMALLINT
// column per 15-minute interval (s0..s95).  Cells store signed deltas from
// zero: a reservation of amount n subtracts n from every touched cell, so
// the remaining capacity for an interval is max_quantity - |cell|.  Rows
// are created lazily on first touch and kept forever as a historical
// record.
//
// All slot ranges are half-open [startSlot, endSlot), for reserve and
// release alike.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// slotColumn returns the ledger column name for a slot index.
func slotColumn(slot int) string { return "s" + strconv.Itoa(slot) }

// applyQuery builds the single-statement upsert that adds delta to every
// cell in [startSlot, endSlot) of one day row, creating the row when it
// does not exist yet.  One statement per row keeps the per-row update
// atomic under concurrent bookings.
func applyQuery(table string, startSlot, endSlot int) string {
	var cols, vals, updates strings.Builder
	for s := startSlot; s < endSlot; s++ {
		if s > startSlot {
			cols.WriteString(", ")
			vals.WriteString(", ")
			updates.WriteString(", ")
		}
		c := slotColumn(s)
		cols.WriteString(c)
		vals.WriteString("?")
		updates.WriteString(c + " = " + c + " + VALUES(" + c + ")")
	}
	return fmt.Sprintf(
		"INSERT INTO %s (day, %s) VALUES (?, %s) ON DUPLICATE KEY UPDATE %s",
		table, cols.String(), vals.String(), updates.String(),
	)
}

// guardQuery builds the statement that re-reads the touched cells and
// reports whether any of them is oversold.  Run inside the same
// transaction as the upsert, the rows locked by the update make the check
// race-free.
func guardQuery(table string, startSlot, endSlot int) string {
	var expr strings.Builder
	expr.WriteString("GREATEST(")
	for s := startSlot; s < endSlot; s++ {
		if s > startSlot {
			expr.WriteString(", ")
		}
		expr.WriteString("ABS(" + slotColumn(s) + ")")
	}
	expr.WriteString(")")
	return fmt.Sprintf("SELECT %s FROM %s WHERE day = ?", expr.String(), table)
}

func validSlotRange(startSlot, endSlot int) bool {
	return startSlot >= 0 && startSlot < endSlot && endSlot <= timeslot.SlotsPerDay
}

// applyTx adds delta to each cell in [startSlot, endSlot) of the row for
// date, creating the row if absent.
func (r *LedgerRepo) applyTx(ctx context.Context, tx *sql.Tx, res *model.Resource, date string, startSlot, endSlot, delta int) error {
	if !validSlotRange(startSlot, endSlot) {
		return fmt.Errorf("%w: slot range [%d,%d)", ErrLedgerWrite, startSlot, endSlot)
	}
	args := make([]interface{}, 0, endSlot-startSlot+1)
	args = append(args, date)
	for s := startSlot; s < endSlot; s++ {
		args = append(args, delta)
	}
	if _, err := tx.ExecContext(ctx, applyQuery(res.LedgerTable, startSlot, endSlot), args...); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}
	return nil
}

// ReserveTx decrements every cell in [startSlot, endSlot) of the addressed
// day by amount, then verifies inside the same transaction that no touched
// cell exceeds the resource maximum.  On oversell it returns
// ErrInsufficientCapacity; the caller must roll back.  The availability
// pre-check in the query service is advisory only — this guard is what
// actually prevents concurrent oversell.
func (r *LedgerRepo) ReserveTx(ctx context.Context, tx *sql.Tx, res *model.Resource, date string, startSlot, endSlot, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: non-positive amount %d", ErrLedgerWrite, amount)
	}
	if err := r.applyTx(ctx, tx, res, date, startSlot, endSlot, -amount); err != nil {
		return err
	}
	var peak int
	err := tx.QueryRowContext(ctx, guardQuery(res.LedgerTable, startSlot, endSlot), date).Scan(&peak)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}
	if peak > res.MaxQuantity {
		return ErrInsufficientCapacity
	}
	return nil
}

// ReleaseTx increments the same cells a prior ReserveTx decremented,
// restoring each touched cell to its pre-reserve value.  It must only be
// called for bookings whose reserve succeeded.
func (r *LedgerRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, res *model.Resource, date string, startSlot, endSlot, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: non-positive amount %d", ErrLedgerWrite, amount)
	}
	return r.applyTx(ctx, tx, res, date, startSlot, endSlot, amount)
}

// DayRow loads the full 96-cell row for one resource and date.  A date
// with no row yet reads as all zeros, i.e. full capacity.
func (r *LedgerRepo) DayRow(ctx context.Context, res *model.Resource, date string) ([timeslot.SlotsPerDay]int, error) {
	var row [timeslot.SlotsPerDay]int

	var cols strings.Builder
	for s := 0; s < timeslot.SlotsPerDay; s++ {
		if s > 0 {
			cols.WriteString(", ")
		}
		cols.WriteString(slotColumn(s))
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE day = ?", cols.String(), res.LedgerTable)

	dest := make([]interface{}, timeslot.SlotsPerDay)
	for i := range row {
		dest[i] = &row[i]
	}
	err := r.db.QueryRowContext(ctx, q, date).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return row, nil
	}
	if err != nil {
		return row, err
	}
	return row, nil
}

// Remaining reports the remaining capacity for one interval cell, given
// a row previously loaded with DayRow.  The stored cell is a
// negative-leaning delta; its magnitude is compared against the maximum.
func Remaining(res *model.Resource, row [timeslot.SlotsPerDay]int, slot int) int {
	v := row[slot]
	if v < 0 {
		v = -v
	}
	left := res.MaxQuantity - v
	if left < 0 {
		return 0
	}
	return left
}
