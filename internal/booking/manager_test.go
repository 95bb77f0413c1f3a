package booking

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
)

// stubConn is a minimal database/sql driver that only supports
// transactions, counting commits and rollbacks. The Manager's stores are
// faked below, so no statement ever reaches the connection.
type stubConn struct {
	commits   int
	rollbacks int
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return &stubTx{conn: c}, nil }

type stubTx struct{ conn *stubConn }

func (t *stubTx) Commit() error   { t.conn.commits++; return nil }
func (t *stubTx) Rollback() error { t.conn.rollbacks++; return nil }

type stubConnector struct{ conn *stubConn }

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *stubConnector) Driver() driver.Driver                        { return nil }

type ledgerCall struct {
	slug      string
	date      string
	startSlot int
	endSlot   int
	amount    int
	release   bool
}

type fakeLedger struct {
	calls  []ledgerCall
	failAt int // 1-based call index at which ReserveTx errors, 0 = never
}

func (f *fakeLedger) ReserveTx(_ context.Context, _ *sql.Tx, res *model.Resource, date string, startSlot, endSlot, amount int) error {
	f.calls = append(f.calls, ledgerCall{res.Slug, date, startSlot, endSlot, amount, false})
	if f.failAt != 0 && len(f.calls) >= f.failAt {
		return repository.ErrInsufficientCapacity
	}
	return nil
}

func (f *fakeLedger) ReleaseTx(_ context.Context, _ *sql.Tx, res *model.Resource, date string, startSlot, endSlot, amount int) error {
	f.calls = append(f.calls, ledgerCall{res.Slug, date, startSlot, endSlot, amount, true})
	return nil
}

func (f *fakeLedger) releases() []ledgerCall {
	var out []ledgerCall
	for _, c := range f.calls {
		if c.release {
			out = append(out, c)
		}
	}
	return out
}

type statusChange struct {
	bookingID uint64
	status    string
	applied   bool
}

type fakeBookings struct {
	sessions  map[string]bool
	created   []*model.Booking
	resources map[uint64][]model.BookingResource
	byRef     map[string]*model.Booking
	statuses  []statusChange
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		sessions:  map[string]bool{},
		resources: map[uint64][]model.BookingResource{},
		byRef:     map[string]*model.Booking{},
	}
}

func (f *fakeBookings) CreateTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	b.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBookings) CreateResourcesBulkTx(_ context.Context, _ *sql.Tx, rows []model.BookingResource) error {
	for _, r := range rows {
		f.resources[r.BookingID] = append(f.resources[r.BookingID], r)
	}
	return nil
}

func (f *fakeBookings) ExistsBySession(_ context.Context, session string) (bool, error) {
	return f.sessions[session], nil
}

func (f *fakeBookings) GetByReferenceTx(_ context.Context, _ *sql.Tx, reference string) (*model.Booking, error) {
	b, ok := f.byRef[reference]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) ResourcesByBookingTx(_ context.Context, _ *sql.Tx, bookingID uint64) ([]model.BookingResource, error) {
	return f.resources[bookingID], nil
}

func (f *fakeBookings) UpdateStatusTx(_ context.Context, _ *sql.Tx, bookingID uint64, status string, ledgerApplied bool) error {
	f.statuses = append(f.statuses, statusChange{bookingID, status, ledgerApplied})
	return nil
}

type fakeInvoices struct{ created []*model.InvoiceDetails }

func (f *fakeInvoices) CreateTx(_ context.Context, _ *sql.Tx, inv *model.InvoiceDetails) error {
	f.created = append(f.created, inv)
	return nil
}

func newTestManager(t *testing.T, bookings *fakeBookings, ledger *fakeLedger) (*Manager, *stubConn) {
	t.Helper()
	registry, err := repository.NewRegistry([]model.Resource{
		{ID: 1, Slug: "canoe", Name: "Canoe", MaxQuantity: 5, LedgerTable: "canoe_ledger"},
		{ID: 2, Slug: "kayak", Name: "Kayak", MaxQuantity: 8, LedgerTable: "kayak_ledger"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	conn := &stubConn{}
	db := sql.OpenDB(&stubConnector{conn: conn})
	t.Cleanup(func() { _ = db.Close() })
	return NewManager(db, registry, bookings, &fakeInvoices{}, ledger), conn
}

func overnightRequest() Request {
	return Request{
		ExperienceID: 7,
		StartDate:    "2024-07-01",
		StartTime:    "14:00",
		EndDate:      "2024-07-02",
		EndTime:      "09:00",
		Adults:       2,
		TotalCents:   250000,
		Resources:    map[string]int{"canoe": 2, "kayak": 1},
	}
}

func TestConfirmPaidReservesEachCellOnce(t *testing.T) {
	t.Parallel()

	bookings := newFakeBookings()
	ledger := &fakeLedger{}
	m, conn := newTestManager(t, bookings, ledger)

	b, err := m.ConfirmPaid(context.Background(), "cs_1", overnightRequest())
	if err != nil {
		t.Fatalf("ConfirmPaid: %v", err)
	}
	if b.Status != model.StatusPaid || !b.LedgerApplied {
		t.Fatalf("booking = %+v, want PAID with ledger applied", b)
	}

	// Two resources over two days, resources in id order, days in
	// calendar order, half-open ranges on both sides of midnight.
	want := []ledgerCall{
		{"canoe", "2024-07-01", 56, 96, 2, false},
		{"canoe", "2024-07-02", 0, 36, 2, false},
		{"kayak", "2024-07-01", 56, 96, 1, false},
		{"kayak", "2024-07-02", 0, 36, 1, false},
	}
	if len(ledger.calls) != len(want) {
		t.Fatalf("ledger calls = %v, want %v", ledger.calls, want)
	}
	for i, c := range ledger.calls {
		if c != want[i] {
			t.Fatalf("ledger call %d = %+v, want %+v", i, c, want[i])
		}
	}
	if conn.commits != 1 || conn.rollbacks != 0 {
		t.Fatalf("commits=%d rollbacks=%d, want a single commit", conn.commits, conn.rollbacks)
	}
}

func TestConfirmPaidDuplicateSession(t *testing.T) {
	t.Parallel()

	bookings := newFakeBookings()
	bookings.sessions["cs_seen"] = true
	ledger := &fakeLedger{}
	m, conn := newTestManager(t, bookings, ledger)

	_, err := m.ConfirmPaid(context.Background(), "cs_seen", overnightRequest())
	if !errors.Is(err, repository.ErrDuplicateSession) {
		t.Fatalf("ConfirmPaid err = %v, want ErrDuplicateSession", err)
	}
	if len(ledger.calls) != 0 {
		t.Fatalf("ledger touched on a duplicate session: %v", ledger.calls)
	}
	if len(bookings.created) != 0 || conn.commits != 0 {
		t.Fatal("duplicate session created a booking")
	}
}

func TestConfirmPaidRollsBackOnLedgerFailure(t *testing.T) {
	t.Parallel()

	bookings := newFakeBookings()
	ledger := &fakeLedger{failAt: 3}
	m, conn := newTestManager(t, bookings, ledger)

	_, err := m.ConfirmPaid(context.Background(), "cs_2", overnightRequest())
	if !errors.Is(err, repository.ErrInsufficientCapacity) {
		t.Fatalf("ConfirmPaid err = %v, want ErrInsufficientCapacity", err)
	}
	if conn.commits != 0 || conn.rollbacks != 1 {
		t.Fatalf("commits=%d rollbacks=%d, want rollback only", conn.commits, conn.rollbacks)
	}
	if len(bookings.statuses) != 0 {
		t.Fatalf("status written despite rollback: %v", bookings.statuses)
	}
}

func TestTransitionReleasesOnlyWhenApplied(t *testing.T) {
	t.Parallel()

	base := model.Booking{
		ExperienceID: 7,
		StartDate:    "2024-07-01",
		StartTime:    "14:00",
		EndDate:      "2024-07-02",
		EndTime:      "09:00",
		Status:       model.StatusStarted,
	}

	t.Run("held reserve is released on completion", func(t *testing.T) {
		bookings := newFakeBookings()
		held := base
		held.ID = 1
		held.Reference = "ref-held"
		held.LedgerApplied = true
		bookings.byRef[held.Reference] = &held
		bookings.resources[held.ID] = []model.BookingResource{{BookingID: held.ID, ResourceID: 1, Amount: 2}}
		ledger := &fakeLedger{}
		m, conn := newTestManager(t, bookings, ledger)

		b, err := m.Complete(context.Background(), held.Reference)
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if b.Status != model.StatusCompleted || b.LedgerApplied {
			t.Fatalf("booking = %+v, want COMPLETED with reserve released", b)
		}
		rel := ledger.releases()
		if len(rel) != 2 || rel[0].date != "2024-07-01" || rel[1].date != "2024-07-02" {
			t.Fatalf("releases = %v, want one per day", rel)
		}
		want := statusChange{held.ID, model.StatusCompleted, false}
		if len(bookings.statuses) != 1 || bookings.statuses[0] != want {
			t.Fatalf("statuses = %v, want %+v", bookings.statuses, want)
		}
		if conn.commits != 1 {
			t.Fatalf("commits = %d, want 1", conn.commits)
		}
	})

	t.Run("already released reserve is not released again", func(t *testing.T) {
		bookings := newFakeBookings()
		spent := base
		spent.ID = 2
		spent.Reference = "ref-spent"
		spent.LedgerApplied = false
		bookings.byRef[spent.Reference] = &spent
		bookings.resources[spent.ID] = []model.BookingResource{{BookingID: spent.ID, ResourceID: 1, Amount: 2}}
		ledger := &fakeLedger{}
		m, _ := newTestManager(t, bookings, ledger)

		b, err := m.Complete(context.Background(), spent.Reference)
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if b.Status != model.StatusCompleted {
			t.Fatalf("status = %s, want COMPLETED", b.Status)
		}
		if len(ledger.calls) != 0 {
			t.Fatalf("ledger touched without a held reserve: %v", ledger.calls)
		}
	})
}
