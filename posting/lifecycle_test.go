package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
	memstore "github.com/inkwell-books/inkwell/books/store"
	"github.com/inkwell-books/inkwell/reports"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func seedChart(t *testing.T, st books.Store) {
	t.Helper()
	ctx := context.Background()
	accounts := []books.Account{
		{Name: "Current Assets", RootType: books.RootTypeAsset, IsGroup: true},
		{Name: "Debtors", Parent: "Current Assets", RootType: books.RootTypeAsset},
		{Name: "Cash", Parent: "Current Assets", RootType: books.RootTypeAsset},
		{Name: "Stock In Hand", Parent: "Current Assets", RootType: books.RootTypeAsset},
		{Name: "Income", RootType: books.RootTypeIncome, IsGroup: true},
		{Name: "Sales", Parent: "Income", RootType: books.RootTypeIncome},
		{Name: "Expenses", RootType: books.RootTypeExpense, IsGroup: true},
		{Name: "Cost of Goods Sold", Parent: "Expenses", RootType: books.RootTypeExpense},
	}
	for _, a := range accounts {
		if err := st.InsertAccount(ctx, a); err != nil {
			t.Fatalf("seed account %s: %v", a.Name, err)
		}
	}
}

func draftInvoice(t *testing.T, st books.Store, name string) *Invoice {
	t.Helper()
	inv := &Invoice{
		Name:         name,
		Date:         day(1),
		Party:        "Acme",
		PartyAccount: "Debtors",
		Lines: []InvoiceLine{
			{Account: "Sales", Item: "Widget", Quantity: d("1"), Rate: d("700")},
		},
	}
	rec, err := Record(inv)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.InsertDocument(context.Background(), rec); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	return inv
}

func newLifecycle(st books.TxStore) *Lifecycle {
	return NewLifecycle(st, books.DefaultSettings())
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmitSalesInvoicePostsLedger(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)
	inv := draftInvoice(t, st, "INV-1")

	if err := lc.Submit(ctx, inv); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec, err := st.Document(ctx, KindInvoice, "INV-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != books.StatusSubmitted {
		t.Fatalf("want Submitted, got %s", rec.Status)
	}

	entries := entriesFor(t, st, KindInvoice, "INV-1")
	if len(entries) != 2 {
		t.Fatalf("want 2 ledger entries, got %d", len(entries))
	}
	byAccount := map[string]books.LedgerEntry{}
	for _, e := range entries {
		byAccount[e.Account] = e
	}
	requireDecimalEqual(t, d("700"), byAccount["Debtors"].Debit, "receivable debit")
	requireDecimalEqual(t, d("700"), byAccount["Sales"].Credit, "income credit")
}

func TestSubmitRequiresDraft(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)
	inv := draftInvoice(t, st, "INV-1")

	if err := lc.Submit(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if err := lc.Submit(ctx, inv); !errors.Is(err, books.ErrNotSubmittable) {
		t.Fatalf("want ErrNotSubmittable, got %v", err)
	}
	if got := len(entriesFor(t, st, KindInvoice, "INV-1")); got != 2 {
		t.Fatalf("resubmit must not duplicate entries, got %d", got)
	}
}

func TestFailedSubmitLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)

	inv := &Invoice{
		Name:         "INV-BAD",
		Date:         day(1),
		Party:        "Acme",
		PartyAccount: "Current Assets", // group account, not postable
		Lines: []InvoiceLine{
			{Account: "Sales", Quantity: d("1"), Rate: d("700")},
		},
	}
	rec, err := Record(inv)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.InsertDocument(ctx, rec); err != nil {
		t.Fatal(err)
	}

	if err := lc.Submit(ctx, inv); err == nil {
		t.Fatal("submit against a group account must fail")
	}
	got, err := st.Document(ctx, KindInvoice, "INV-BAD")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != books.StatusDraft {
		t.Fatalf("failed submit must leave the document Draft, got %s", got.Status)
	}
	if len(entriesFor(t, st, KindInvoice, "INV-BAD")) != 0 {
		t.Fatal("failed submit must write no entries")
	}
}

func TestSubmitStockMovementWritesStockRowsOnly(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)

	sm := &StockMovement{
		Name: "SM-1",
		Date: day(1),
		Type: MaterialReceipt,
		Lines: []MovementLine{
			{Item: "Widget", ToLocation: "Main", Quantity: d("10"), Rate: d("5")},
		},
	}
	rec, err := Record(sm)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.InsertDocument(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := lc.Submit(ctx, sm); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows, err := st.StockEntries(ctx, books.StockFilter{Item: "Widget"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 stock row, got %d", len(rows))
	}
	requireDecimalEqual(t, d("10"), rows[0].Quantity, "inward quantity")
	if rows[0].Seq == 0 {
		t.Fatal("store must assign a creation sequence")
	}
	if len(entriesFor(t, st, KindStockMovement, "SM-1")) != 0 {
		t.Fatal("stock movement must have no ledger effect")
	}
}

func TestSubmitShipmentPostsReplayedCost(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)

	receipt := &StockMovement{
		Name: "SM-1",
		Date: day(1),
		Type: MaterialReceipt,
		Lines: []MovementLine{
			{Item: "Widget", ToLocation: "Main", Quantity: d("10"), Rate: d("5")},
		},
	}
	rec, err := Record(receipt)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.InsertDocument(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := lc.Submit(ctx, receipt); err != nil {
		t.Fatal(err)
	}

	// Ship 4 units listed at 9; the ledger must move the replayed cost 20.
	ship := &StockTransfer{
		Name:           "TRF-1",
		Date:           day(2),
		Type:           TransferShipment,
		StockAccount:   "Stock In Hand",
		AgainstAccount: "Cost of Goods Sold",
		Lines: []StockTransferLine{
			{Item: "Widget", Location: "Main", Quantity: d("4"), Rate: d("9")},
		},
	}
	rec, err = Record(ship)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.InsertDocument(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := lc.Submit(ctx, ship); err != nil {
		t.Fatalf("submit shipment: %v", err)
	}

	entries := entriesFor(t, st, KindStockTransfer, "TRF-1")
	if len(entries) != 2 {
		t.Fatalf("want 2 ledger entries, got %d", len(entries))
	}
	byAccount := map[string]books.LedgerEntry{}
	for _, e := range entries {
		byAccount[e.Account] = e
	}
	requireDecimalEqual(t, d("20"), byAccount["Cost of Goods Sold"].Debit, "cogs debit")
	requireDecimalEqual(t, d("20"), byAccount["Stock In Hand"].Credit, "stock credit")
}

// =============================================================================
// CANCEL
// =============================================================================

func TestCancelRevertsLedgerAndRemovesStockRows(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)

	receipt := &StockTransfer{
		Name:           "TRF-1",
		Date:           day(1),
		Type:           TransferReceipt,
		StockAccount:   "Stock In Hand",
		AgainstAccount: "Cash",
		Lines: []StockTransferLine{
			{Item: "Widget", Location: "Main", Quantity: d("10"), Rate: d("5")},
		},
	}
	rec, err := Record(receipt)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.InsertDocument(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := lc.Submit(ctx, receipt); err != nil {
		t.Fatal(err)
	}

	if err := lc.Cancel(ctx, receipt); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := st.Document(ctx, KindStockTransfer, "TRF-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != books.StatusCancelled {
		t.Fatalf("want Cancelled, got %s", got.Status)
	}

	entries := entriesFor(t, st, KindStockTransfer, "TRF-1")
	if len(entries) != 4 {
		t.Fatalf("want originals plus mirrors, got %d", len(entries))
	}
	net := decimal.Zero
	for _, e := range entries {
		net = net.Add(e.Debit).Sub(e.Credit)
	}
	requireDecimalEqual(t, decimal.Zero, net, "ledger net after cancel")

	rows, err := st.StockEntries(ctx, books.StockFilter{Item: "Widget"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("cancel must remove the document's stock rows, got %d", len(rows))
	}
}

func TestCancelRequiresSubmitted(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)
	inv := draftInvoice(t, st, "INV-1")

	if err := lc.Cancel(ctx, inv); !errors.Is(err, books.ErrNotCancellable) {
		t.Fatalf("cancel of a draft: want ErrNotCancellable, got %v", err)
	}

	if err := lc.Submit(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if err := lc.Cancel(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if err := lc.Cancel(ctx, inv); !errors.Is(err, books.ErrNotCancellable) {
		t.Fatalf("double cancel: want ErrNotCancellable, got %v", err)
	}
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteCascadesFromDraftAndCancelled(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)

	inv := draftInvoice(t, st, "INV-1")
	if err := lc.Submit(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if err := lc.Delete(ctx, KindInvoice, "INV-1"); !errors.Is(err, books.ErrNotDeletable) {
		t.Fatalf("delete of submitted: want ErrNotDeletable, got %v", err)
	}

	if err := lc.Cancel(ctx, inv); err != nil {
		t.Fatal(err)
	}
	if err := lc.Delete(ctx, KindInvoice, "INV-1"); err != nil {
		t.Fatalf("delete of cancelled: %v", err)
	}

	if _, err := st.Document(ctx, KindInvoice, "INV-1"); !books.IsNotFound(err) {
		t.Fatalf("document should be gone, got %v", err)
	}
	if got := len(entriesFor(t, st, KindInvoice, "INV-1")); got != 0 {
		t.Fatalf("delete must cascade ledger entries, got %d", got)
	}
}

func TestDeleteUnknownDocumentIsNotFound(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	lc := newLifecycle(st)

	if err := lc.Delete(ctx, KindInvoice, "INV-GHOST"); !books.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

// =============================================================================
// DECODE ROUND TRIP
// =============================================================================

func TestDecodeReconstructsTypedVariant(t *testing.T) {
	inv := &Invoice{
		Name:         "INV-1",
		Date:         day(1),
		Party:        "Acme",
		PartyAccount: "Debtors",
		Lines: []InvoiceLine{
			{Account: "Sales", Quantity: d("2"), Rate: d("350")},
		},
	}
	rec, err := Record(inv)
	if err != nil {
		t.Fatal(err)
	}

	doc, err := Decode(rec.Kind, rec.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := doc.(*Invoice)
	if !ok {
		t.Fatalf("want *Invoice, got %T", doc)
	}
	requireDecimalEqual(t, d("700"), got.GrandTotal(), "grand total")

	if _, err := Decode("Voucher", rec.Data); err == nil {
		t.Fatal("unknown kind must fail")
	}
}

// =============================================================================
// END TO END
// =============================================================================

func TestCancelledInvoiceLeavesBalanceSheetUntouched(t *testing.T) {
	ctx := context.Background()
	st := memstore.NewMemory()
	seedChart(t, st)
	lc := newLifecycle(st)
	inv := draftInvoice(t, st, "INV-9")

	if err := lc.Submit(ctx, inv); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := lc.Cancel(ctx, inv); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	entries := entriesFor(t, st, KindInvoice, "INV-9")
	if len(entries) != 4 {
		t.Fatalf("want 4 ledger entries after cancel, got %d", len(entries))
	}

	rows, err := reports.BalanceSheet(ctx, st, books.DefaultSettings(), []time.Time{day(5)})
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	for _, row := range rows {
		if len(row.Cells) < 2 {
			continue
		}
		label := row.Cells[0].Value
		if label == "Debtors" || label == "Total Asset" {
			if row.Cells[1].Value != "" {
				t.Fatalf("%s: want blank balance, got %q", label, row.Cells[1].Value)
			}
		}
	}
}
