/*
documents.go - The closed set of transactional document variants

PURPOSE:
  Defines the document types the lifecycle can drive: Invoice, Payment,
  JournalEntry, StockMovement, and StockTransfer. Each variant knows how
  to validate itself, build its balanced posting, and - for the inventory
  affecting ones - build its raw stock rows.

DESIGN:
  A small closed set of tagged variants sharing the Document interface,
  not an inheritance chain. The lifecycle only sees the interface; the
  HTTP layer reconstructs concrete variants from stored JSON payloads via
  Decode.

SEE ALSO:
  - lifecycle.go: Drives these through Draft/Submitted/Cancelled
  - stock/cogs.go: Realized cost for outward StockTransfer documents
*/
package posting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
	"github.com/inkwell-books/inkwell/stock"
)

// Document kinds, used as ledger/stock reference types.
const (
	KindInvoice       = "Invoice"
	KindPayment       = "Payment"
	KindJournalEntry  = "JournalEntry"
	KindStockMovement = "StockMovement"
	KindStockTransfer = "StockTransfer"
)

// =============================================================================
// DOCUMENT INTERFACE
// =============================================================================

// Document is the shared lifecycle contract of every transactional
// document variant.
type Document interface {
	DocKind() string
	DocName() string
	DocDate() time.Time

	// Validate checks the document's own fields and referenced catalog
	// rows. Called before any posting is built.
	Validate(ctx context.Context, st books.Store) error

	// BuildPosting assembles the document's balanced ledger lines.
	// A nil posting means the document has no ledger effect.
	BuildPosting(ctx context.Context, st books.Store, settings books.Settings) (*Posting, error)
}

// StockDocument is implemented by the inventory-affecting variants.
type StockDocument interface {
	Document

	// BuildStockEntries returns the raw stock rows written on submit.
	BuildStockEntries(ctx context.Context, st books.Store, settings books.Settings) ([]books.StockEntry, error)
}

// =============================================================================
// SHARED VALIDATION HELPERS
// =============================================================================

func requirePostableAccount(ctx context.Context, st books.Store, name string) error {
	if name == "" {
		return fmt.Errorf("account: %w", books.ErrNotFound)
	}
	a, err := st.Account(ctx, name)
	if err != nil {
		return err
	}
	if a.IsGroup {
		return fmt.Errorf("account %q is a group and cannot be posted to", name)
	}
	return nil
}

// =============================================================================
// INVOICE
// =============================================================================

// InvoiceLine is one income (sales) or expense (purchase) line.
type InvoiceLine struct {
	Account  string          `json:"account"`
	Item     string          `json:"item,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

// Amount is the line total.
func (l InvoiceLine) Amount() decimal.Decimal { return l.Quantity.Mul(l.Rate) }

// Invoice bills a party. A sales invoice debits the receivable account and
// credits each line's income account; a purchase invoice mirrors that
// against a payable account.
type Invoice struct {
	Name         string          `json:"name"`
	Date         time.Time       `json:"date"`
	Party        string          `json:"party"`
	PartyAccount string          `json:"partyAccount"` // receivable or payable
	IsPurchase   bool            `json:"isPurchase,omitempty"`
	Lines        []InvoiceLine   `json:"lines"`
}

func (inv *Invoice) DocKind() string    { return KindInvoice }
func (inv *Invoice) DocName() string    { return inv.Name }
func (inv *Invoice) DocDate() time.Time { return inv.Date }

// GrandTotal sums the line amounts.
func (inv *Invoice) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

func (inv *Invoice) Validate(ctx context.Context, st books.Store) error {
	if inv.Party == "" {
		return fmt.Errorf("invoice %s: party is required", inv.Name)
	}
	if len(inv.Lines) == 0 {
		return fmt.Errorf("invoice %s: at least one line is required", inv.Name)
	}
	if err := requirePostableAccount(ctx, st, inv.PartyAccount); err != nil {
		return err
	}
	for i, l := range inv.Lines {
		if err := requirePostableAccount(ctx, st, l.Account); err != nil {
			return err
		}
		if l.Quantity.IsNegative() || l.Rate.IsNegative() {
			return fmt.Errorf("invoice %s line %d: %w", inv.Name, i, books.ErrNegativeAmount)
		}
	}
	return nil
}

func (inv *Invoice) BuildPosting(_ context.Context, _ books.Store, _ books.Settings) (*Posting, error) {
	p := NewPosting(KindInvoice, inv.Name, inv.Date)
	p.Party = inv.Party

	if inv.IsPurchase {
		if err := p.Credit(inv.PartyAccount, inv.GrandTotal()); err != nil {
			return nil, err
		}
		for _, l := range inv.Lines {
			if err := p.Debit(l.Account, l.Amount()); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	if err := p.Debit(inv.PartyAccount, inv.GrandTotal()); err != nil {
		return nil, err
	}
	for _, l := range inv.Lines {
		if err := p.Credit(l.Account, l.Amount()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// =============================================================================
// PAYMENT
// =============================================================================

// PaymentKind distinguishes money received from money paid out.
type PaymentKind string

const (
	PaymentReceive PaymentKind = "Receive"
	PaymentPay     PaymentKind = "Pay"
)

// Payment settles a party balance against a cash or bank account.
type Payment struct {
	Name           string          `json:"name"`
	Date           time.Time       `json:"date"`
	Party          string          `json:"party"`
	Kind           PaymentKind     `json:"kind"`
	PaymentAccount string          `json:"paymentAccount"` // cash or bank
	PartyAccount   string          `json:"partyAccount"`   // receivable or payable
	Amount         decimal.Decimal `json:"amount"`
}

func (pm *Payment) DocKind() string    { return KindPayment }
func (pm *Payment) DocName() string    { return pm.Name }
func (pm *Payment) DocDate() time.Time { return pm.Date }

func (pm *Payment) Validate(ctx context.Context, st books.Store) error {
	if pm.Kind != PaymentReceive && pm.Kind != PaymentPay {
		return fmt.Errorf("payment %s: unknown kind %q", pm.Name, pm.Kind)
	}
	if pm.Amount.IsNegative() {
		return fmt.Errorf("payment %s: %w", pm.Name, books.ErrNegativeAmount)
	}
	if err := requirePostableAccount(ctx, st, pm.PaymentAccount); err != nil {
		return err
	}
	return requirePostableAccount(ctx, st, pm.PartyAccount)
}

func (pm *Payment) BuildPosting(_ context.Context, _ books.Store, _ books.Settings) (*Posting, error) {
	p := NewPosting(KindPayment, pm.Name, pm.Date)
	p.Party = pm.Party

	if pm.Kind == PaymentReceive {
		if err := p.Debit(pm.PaymentAccount, pm.Amount); err != nil {
			return nil, err
		}
		if err := p.Credit(pm.PartyAccount, pm.Amount); err != nil {
			return nil, err
		}
		return p, nil
	}

	if err := p.Debit(pm.PartyAccount, pm.Amount); err != nil {
		return nil, err
	}
	if err := p.Credit(pm.PaymentAccount, pm.Amount); err != nil {
		return nil, err
	}
	return p, nil
}

// =============================================================================
// JOURNAL ENTRY
// =============================================================================

// JournalLine is one free-form debit-or-credit line.
type JournalLine struct {
	Account string          `json:"account"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// JournalEntry posts arbitrary balanced lines supplied by the user.
type JournalEntry struct {
	Name  string        `json:"name"`
	Date  time.Time     `json:"date"`
	Lines []JournalLine `json:"lines"`
}

func (je *JournalEntry) DocKind() string    { return KindJournalEntry }
func (je *JournalEntry) DocName() string    { return je.Name }
func (je *JournalEntry) DocDate() time.Time { return je.Date }

func (je *JournalEntry) Validate(ctx context.Context, st books.Store) error {
	if len(je.Lines) < 2 {
		return fmt.Errorf("journal entry %s: at least two lines are required", je.Name)
	}
	for i, l := range je.Lines {
		if err := requirePostableAccount(ctx, st, l.Account); err != nil {
			return err
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("journal entry %s line %d: %w", je.Name, i, books.ErrNegativeAmount)
		}
		if !l.Debit.IsZero() && !l.Credit.IsZero() {
			return fmt.Errorf("journal entry %s line %d: cannot be both debit and credit", je.Name, i)
		}
	}
	return nil
}

func (je *JournalEntry) BuildPosting(_ context.Context, _ books.Store, _ books.Settings) (*Posting, error) {
	p := NewPosting(KindJournalEntry, je.Name, je.Date)
	for _, l := range je.Lines {
		if !l.Debit.IsZero() {
			if err := p.Debit(l.Account, l.Debit); err != nil {
				return nil, err
			}
		}
		if !l.Credit.IsZero() {
			if err := p.Credit(l.Account, l.Credit); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// =============================================================================
// STOCK MOVEMENT
// =============================================================================

// MovementType selects the direction of a stock movement.
type MovementType string

const (
	MaterialReceipt  MovementType = "MaterialReceipt"
	MaterialIssue    MovementType = "MaterialIssue"
	MaterialTransfer MovementType = "MaterialTransfer"
)

// MovementLine is one item line of a stock movement.
type MovementLine struct {
	Item         string          `json:"item"`
	FromLocation string          `json:"fromLocation,omitempty"`
	ToLocation   string          `json:"toLocation,omitempty"`
	Batch        string          `json:"batch,omitempty"`
	SerialNumber string          `json:"serialNumber,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
}

// StockMovement moves stock without a ledger effect: receipts push
// inward rows, issues push outward rows, transfers do both.
type StockMovement struct {
	Name  string         `json:"name"`
	Date  time.Time      `json:"date"`
	Type  MovementType   `json:"type"`
	Lines []MovementLine `json:"lines"`
}

func (sm *StockMovement) DocKind() string    { return KindStockMovement }
func (sm *StockMovement) DocName() string    { return sm.Name }
func (sm *StockMovement) DocDate() time.Time { return sm.Date }

func (sm *StockMovement) Validate(_ context.Context, _ books.Store) error {
	if len(sm.Lines) == 0 {
		return fmt.Errorf("stock movement %s: at least one line is required", sm.Name)
	}
	for i, l := range sm.Lines {
		if l.Quantity.IsNegative() || l.Rate.IsNegative() {
			return fmt.Errorf("stock movement %s line %d: %w", sm.Name, i, books.ErrInvalidQuantity)
		}
		needFrom := sm.Type == MaterialIssue || sm.Type == MaterialTransfer
		needTo := sm.Type == MaterialReceipt || sm.Type == MaterialTransfer
		if needFrom && l.FromLocation == "" {
			return fmt.Errorf("stock movement %s line %d: from location is required", sm.Name, i)
		}
		if needTo && l.ToLocation == "" {
			return fmt.Errorf("stock movement %s line %d: to location is required", sm.Name, i)
		}
	}
	switch sm.Type {
	case MaterialReceipt, MaterialIssue, MaterialTransfer:
		return nil
	default:
		return fmt.Errorf("stock movement %s: unknown type %q", sm.Name, sm.Type)
	}
}

// BuildPosting returns nil: stock movements have no ledger effect.
func (sm *StockMovement) BuildPosting(_ context.Context, _ books.Store, _ books.Settings) (*Posting, error) {
	return nil, nil
}

func (sm *StockMovement) BuildStockEntries(_ context.Context, _ books.Store, _ books.Settings) ([]books.StockEntry, error) {
	var rows []books.StockEntry
	for _, l := range sm.Lines {
		if l.Quantity.IsZero() {
			continue
		}
		if sm.Type == MaterialIssue || sm.Type == MaterialTransfer {
			rows = append(rows, books.StockEntry{
				Name:          books.NewName("SLE"),
				Date:          sm.Date,
				Item:          l.Item,
				Location:      l.FromLocation,
				Batch:         l.Batch,
				SerialNumber:  l.SerialNumber,
				Rate:          l.Rate,
				Quantity:      l.Quantity.Neg(),
				ReferenceType: KindStockMovement,
				ReferenceName: sm.Name,
			})
		}
		if sm.Type == MaterialReceipt || sm.Type == MaterialTransfer {
			rows = append(rows, books.StockEntry{
				Name:          books.NewName("SLE"),
				Date:          sm.Date,
				Item:          l.Item,
				Location:      l.ToLocation,
				Batch:         l.Batch,
				SerialNumber:  l.SerialNumber,
				Rate:          l.Rate,
				Quantity:      l.Quantity,
				ReferenceType: KindStockMovement,
				ReferenceName: sm.Name,
			})
		}
	}
	return rows, nil
}

// =============================================================================
// STOCK TRANSFER
// =============================================================================

// TransferType selects the direction of a stock transfer document.
type TransferType string

const (
	TransferShipment TransferType = "Shipment" // outward, realizes COGS
	TransferReceipt  TransferType = "Receipt"  // inward at listed rates
)

// StockTransferLine is one item line of a stock transfer.
type StockTransferLine struct {
	Item     string          `json:"item"`
	Location string          `json:"location"`
	Batch    string          `json:"batch,omitempty"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
}

// Amount is the line total at the listed rate.
func (l StockTransferLine) Amount() decimal.Decimal { return l.Quantity.Mul(l.Rate) }

// StockTransfer is the inventory-affecting document with a ledger effect.
// A Shipment writes outward stock rows and posts the realized cost
// (computed by costing replay) from the stock account to the against
// account; a Receipt writes inward rows and posts the listed value the
// other way.
type StockTransfer struct {
	Name           string              `json:"name"`
	Date           time.Time           `json:"date"`
	Party          string              `json:"party,omitempty"`
	Type           TransferType        `json:"type"`
	StockAccount   string              `json:"stockAccount"`   // stock-in-hand asset
	AgainstAccount string              `json:"againstAccount"` // COGS expense or payable
	Lines          []StockTransferLine `json:"lines"`
}

func (tr *StockTransfer) DocKind() string    { return KindStockTransfer }
func (tr *StockTransfer) DocName() string    { return tr.Name }
func (tr *StockTransfer) DocDate() time.Time { return tr.Date }

func (tr *StockTransfer) Validate(ctx context.Context, st books.Store) error {
	if tr.Type != TransferShipment && tr.Type != TransferReceipt {
		return fmt.Errorf("stock transfer %s: unknown type %q", tr.Name, tr.Type)
	}
	if len(tr.Lines) == 0 {
		return fmt.Errorf("stock transfer %s: at least one line is required", tr.Name)
	}
	if err := requirePostableAccount(ctx, st, tr.StockAccount); err != nil {
		return err
	}
	if err := requirePostableAccount(ctx, st, tr.AgainstAccount); err != nil {
		return err
	}
	for i, l := range tr.Lines {
		if l.Quantity.IsNegative() || l.Rate.IsNegative() {
			return fmt.Errorf("stock transfer %s line %d: %w", tr.Name, i, books.ErrInvalidQuantity)
		}
		if l.Location == "" {
			return fmt.Errorf("stock transfer %s line %d: location is required", tr.Name, i)
		}
	}
	return nil
}

func (tr *StockTransfer) BuildPosting(ctx context.Context, st books.Store, settings books.Settings) (*Posting, error) {
	p := NewPosting(KindStockTransfer, tr.Name, tr.Date)
	p.Party = tr.Party

	if tr.Type == TransferReceipt {
		total := decimal.Zero
		for _, l := range tr.Lines {
			total = total.Add(l.Amount())
		}
		if err := p.Debit(tr.StockAccount, total); err != nil {
			return nil, err
		}
		if err := p.Credit(tr.AgainstAccount, total); err != nil {
			return nil, err
		}
		return p, nil
	}

	// Shipment: the ledger moves the replayed cost, not the listed value.
	lines := make([]stock.TransferLine, 0, len(tr.Lines))
	for _, l := range tr.Lines {
		lines = append(lines, stock.TransferLine{
			Item:     l.Item,
			Location: l.Location,
			Batch:    l.Batch,
			Quantity: l.Quantity,
			Rate:     l.Rate,
		})
	}
	cost, err := stock.COGS(ctx, st, settings.CostingMethod, tr.Name, tr.Date, lines)
	if err != nil {
		return nil, err
	}
	if err := p.Debit(tr.AgainstAccount, cost); err != nil {
		return nil, err
	}
	if err := p.Credit(tr.StockAccount, cost); err != nil {
		return nil, err
	}
	return p, nil
}

func (tr *StockTransfer) BuildStockEntries(_ context.Context, _ books.Store, _ books.Settings) ([]books.StockEntry, error) {
	var rows []books.StockEntry
	for _, l := range tr.Lines {
		if l.Quantity.IsZero() {
			continue
		}
		quantity := l.Quantity
		if tr.Type == TransferShipment {
			quantity = quantity.Neg()
		}
		rows = append(rows, books.StockEntry{
			Name:          books.NewName("SLE"),
			Date:          tr.Date,
			Item:          l.Item,
			Location:      l.Location,
			Batch:         l.Batch,
			Rate:          l.Rate,
			Quantity:      quantity,
			ReferenceType: KindStockTransfer,
			ReferenceName: tr.Name,
		})
	}
	return rows, nil
}

// =============================================================================
// DECODE - Reconstruct typed documents from stored payloads
// =============================================================================

// Decode unmarshals a stored document payload into its typed variant.
func Decode(kind string, data []byte) (Document, error) {
	var doc Document
	switch kind {
	case KindInvoice:
		doc = &Invoice{}
	case KindPayment:
		doc = &Payment{}
	case KindJournalEntry:
		doc = &JournalEntry{}
	case KindStockMovement:
		doc = &StockMovement{}
	case KindStockTransfer:
		doc = &StockTransfer{}
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	return doc, nil
}

// Record serializes a typed document into its persisted shell, starting
// in Draft.
func Record(doc Document) (books.DocumentRecord, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return books.DocumentRecord{}, fmt.Errorf("encoding %s payload: %w", doc.DocKind(), err)
	}
	return books.DocumentRecord{
		Name:   doc.DocName(),
		Kind:   doc.DocKind(),
		Date:   doc.DocDate(),
		Status: books.StatusDraft,
		Data:   data,
	}, nil
}
