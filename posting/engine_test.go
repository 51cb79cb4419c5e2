package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
	memstore "github.com/inkwell-books/inkwell/books/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func day(n int) time.Time {
	return time.Date(2026, time.April, n, 0, 0, 0, 0, time.UTC)
}

func requireDecimalEqual(t *testing.T, want, got decimal.Decimal, label string) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("%s: want %s, got %s", label, want, got)
	}
}

func entriesFor(t *testing.T, st books.Store, refType, refName string) []books.LedgerEntry {
	t.Helper()
	entries, err := st.LedgerEntries(context.Background(), books.LedgerFilter{
		ReferenceType: refType,
		ReferenceName: refName,
	})
	if err != nil {
		t.Fatalf("query ledger: %v", err)
	}
	return entries
}

// =============================================================================
// POSTING
// =============================================================================

func TestPostWritesBalancedEntries(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	p := NewPosting(KindInvoice, "INV-1", day(1))
	p.Party = "Acme"
	if err := p.Debit("Debtors", d("700")); err != nil {
		t.Fatal(err)
	}
	if err := p.Credit("Sales", d("700")); err != nil {
		t.Fatal(err)
	}
	if err := p.Post(ctx, st); err != nil {
		t.Fatalf("post: %v", err)
	}

	entries := entriesFor(t, st, KindInvoice, "INV-1")
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, e := range entries {
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
		if e.Party != "Acme" {
			t.Fatalf("party not carried onto entry %s", e.Name)
		}
	}
	requireDecimalEqual(t, totalDebit, totalCredit, "debit/credit totals")
}

func TestPostRejectsImbalance(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	p := NewPosting(KindInvoice, "INV-1", day(1))
	if err := p.Debit("Debtors", d("700")); err != nil {
		t.Fatal(err)
	}
	if err := p.Credit("Sales", d("500")); err != nil {
		t.Fatal(err)
	}

	err := p.Post(ctx, st)
	if !errors.Is(err, books.ErrImbalancedPosting) {
		t.Fatalf("want ErrImbalancedPosting, got %v", err)
	}
	var imb *books.ImbalanceError
	if !errors.As(err, &imb) {
		t.Fatalf("want *ImbalanceError, got %T", err)
	}
	requireDecimalEqual(t, d("700"), imb.TotalDebit, "reported debit")
	requireDecimalEqual(t, d("500"), imb.TotalCredit, "reported credit")

	if len(entriesFor(t, st, KindInvoice, "INV-1")) != 0 {
		t.Fatal("imbalanced posting must write nothing")
	}
}

func TestDebitCreditRejectNegativeAmounts(t *testing.T) {
	p := NewPosting(KindInvoice, "INV-1", day(1))
	if err := p.Debit("Debtors", d("-1")); !errors.Is(err, books.ErrNegativeAmount) {
		t.Fatalf("debit: want ErrNegativeAmount, got %v", err)
	}
	if err := p.Credit("Sales", d("-1")); !errors.Is(err, books.ErrNegativeAmount) {
		t.Fatalf("credit: want ErrNegativeAmount, got %v", err)
	}
}

func TestPostIsOnceOnly(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	p := NewPosting(KindInvoice, "INV-1", day(1))
	if err := p.Debit("Debtors", d("100")); err != nil {
		t.Fatal(err)
	}
	if err := p.Credit("Sales", d("100")); err != nil {
		t.Fatal(err)
	}
	if err := p.Post(ctx, st); err != nil {
		t.Fatal(err)
	}
	if err := p.Post(ctx, st); err != nil {
		t.Fatalf("second post should no-op, got %v", err)
	}
	if got := len(entriesFor(t, st, KindInvoice, "INV-1")); got != 2 {
		t.Fatalf("want 2 entries after double post, got %d", got)
	}
}

// =============================================================================
// REVERSAL
// =============================================================================

func TestReverseWritesMirroredPairs(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	p := NewPosting(KindInvoice, "INV-1", day(1))
	if err := p.Debit("Debtors", d("700")); err != nil {
		t.Fatal(err)
	}
	if err := p.Credit("Sales", d("700")); err != nil {
		t.Fatal(err)
	}
	if err := p.Post(ctx, st); err != nil {
		t.Fatal(err)
	}

	if err := Reverse(ctx, st, KindInvoice, "INV-1"); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	entries := entriesFor(t, st, KindInvoice, "INV-1")
	if len(entries) != 4 {
		t.Fatalf("want 4 entries after reversal, got %d", len(entries))
	}

	originals := map[string]books.LedgerEntry{}
	var mirrors []books.LedgerEntry
	for _, e := range entries {
		if e.IsReversal() {
			mirrors = append(mirrors, e)
		} else {
			originals[e.Name] = e
		}
	}
	if len(mirrors) != 2 {
		t.Fatalf("want 2 mirrors, got %d", len(mirrors))
	}
	for _, m := range mirrors {
		orig, ok := originals[m.Reverts]
		if !ok {
			t.Fatalf("mirror %s links unknown original %s", m.Name, m.Reverts)
		}
		if !orig.Reverted {
			t.Fatalf("original %s not flagged reverted", orig.Name)
		}
		requireDecimalEqual(t, orig.Debit, m.Credit, "mirror credit")
		requireDecimalEqual(t, orig.Credit, m.Debit, "mirror debit")
		if !orig.Date.Equal(m.Date) {
			t.Fatalf("mirror %s should reuse the original date", m.Name)
		}
	}

	// The pair nets to zero.
	net := decimal.Zero
	for _, e := range entries {
		net = net.Add(e.Debit).Sub(e.Credit)
	}
	requireDecimalEqual(t, decimal.Zero, net, "net after reversal")
}

func TestReverseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	p := NewPosting(KindInvoice, "INV-1", day(1))
	if err := p.Debit("Debtors", d("100")); err != nil {
		t.Fatal(err)
	}
	if err := p.Credit("Sales", d("100")); err != nil {
		t.Fatal(err)
	}
	if err := p.Post(ctx, st); err != nil {
		t.Fatal(err)
	}

	if err := Reverse(ctx, st, KindInvoice, "INV-1"); err != nil {
		t.Fatal(err)
	}
	if err := Reverse(ctx, st, KindInvoice, "INV-1"); err != nil {
		t.Fatalf("second reverse should no-op, got %v", err)
	}
	if got := len(entriesFor(t, st, KindInvoice, "INV-1")); got != 4 {
		t.Fatalf("want exactly one reversal set, got %d entries", got)
	}
}

func TestReverseWithNoEntriesIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	if err := Reverse(ctx, st, KindInvoice, "INV-GHOST"); err != nil {
		t.Fatalf("reverse on empty reference should no-op, got %v", err)
	}
}

// =============================================================================
// CASCADE DELETE
// =============================================================================

func TestDeleteForRemovesOriginalsAndMirrors(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()

	p := NewPosting(KindInvoice, "INV-1", day(1))
	if err := p.Debit("Debtors", d("100")); err != nil {
		t.Fatal(err)
	}
	if err := p.Credit("Sales", d("100")); err != nil {
		t.Fatal(err)
	}
	if err := p.Post(ctx, st); err != nil {
		t.Fatal(err)
	}
	if err := Reverse(ctx, st, KindInvoice, "INV-1"); err != nil {
		t.Fatal(err)
	}

	other := NewPosting(KindInvoice, "INV-2", day(1))
	if err := other.Debit("Debtors", d("50")); err != nil {
		t.Fatal(err)
	}
	if err := other.Credit("Sales", d("50")); err != nil {
		t.Fatal(err)
	}
	if err := other.Post(ctx, st); err != nil {
		t.Fatal(err)
	}

	if err := DeleteFor(ctx, st, KindInvoice, "INV-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(entriesFor(t, st, KindInvoice, "INV-1")); got != 0 {
		t.Fatalf("want 0 entries for deleted reference, got %d", got)
	}
	if got := len(entriesFor(t, st, KindInvoice, "INV-2")); got != 2 {
		t.Fatalf("other document's entries must survive, got %d", got)
	}
}
