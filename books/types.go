/*
Package books provides the core accounting data model.

PURPOSE:
  This package contains the shared types consumed by every other package:
  ledger entries, stock ledger entries, the account catalog, settings, and
  the persistence contract. It has no business logic of its own - posting,
  costing, and reporting live in their own packages on top of these types.

KEY CONCEPTS IN THIS FILE (types.go):
  - LedgerEntry: One immutable debit-or-credit fact tied to an account
  - StockEntry: One immutable signed stock movement
  - Account: A node in the chart-of-accounts tree
  - RootType: Top-level classification that fixes the sign convention

DESIGN PRINCIPLES:
  1. Immutability: Posted entries are never edited, only reversed
  2. Precision: Uses decimal.Decimal for every amount and quantity
  3. Explicit context: Settings are passed in, never read from globals

SEE ALSO:
  - store.go: Persistence interface
  - errors.go: Error taxonomy
  - posting/: Turns documents into balanced LedgerEntry sets
  - stock/: Values StockEntry rows via FIFO / moving average
*/
package books

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT CATALOG
// =============================================================================

// RootType is the top-level account classification. It determines the
// debit/credit sign convention used when reporting balances.
type RootType string

const (
	RootTypeAsset     RootType = "Asset"
	RootTypeLiability RootType = "Liability"
	RootTypeEquity    RootType = "Equity"
	RootTypeIncome    RootType = "Income"
	RootTypeExpense   RootType = "Expense"
)

// RootTypes lists every valid root type in presentation order.
var RootTypes = []RootType{
	RootTypeAsset,
	RootTypeLiability,
	RootTypeEquity,
	RootTypeIncome,
	RootTypeExpense,
}

// DebitPositive reports whether balances of this root type grow with debits
// (Asset, Expense) rather than credits (Liability, Equity, Income).
func (rt RootType) DebitPositive() bool {
	return rt == RootTypeAsset || rt == RootTypeExpense
}

// Valid reports whether rt is one of the five known root types.
func (rt RootType) Valid() bool {
	for _, known := range RootTypes {
		if rt == known {
			return true
		}
	}
	return false
}

// Account is a node in the chart of accounts.
//
// INVARIANTS:
//   - Every non-root account has exactly one parent; the tree is acyclic.
//   - A leaf's RootType equals its ancestors' RootType.
//   - Group accounts aggregate children and are never posted to directly.
type Account struct {
	Name     string
	Parent   string // empty for root accounts
	RootType RootType
	IsGroup  bool
}

// =============================================================================
// ACCOUNTING LEDGER ENTRY
// =============================================================================

// LedgerEntry is one persisted debit-or-credit fact. Once written it is an
// immutable record: the only sanctioned mutation is flipping Reverted to
// true when a mirrored reversal is posted alongside it.
//
// By convention of the posting engine exactly one of Debit/Credit is
// nonzero per row, and the rows written by one posting call always satisfy
// sum(debit) == sum(credit).
type LedgerEntry struct {
	Name          string // unique id
	Account       string
	Party         string // optional
	Date          time.Time
	ReferenceType string // owning document kind
	ReferenceName string // owning document id
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Reverted      bool
	Reverts       string // name of the entry this one reverses, if any
	CreatedAt     time.Time
}

// IsReversal reports whether the entry is the mirrored counterpart of an
// earlier entry rather than an original posting.
func (e LedgerEntry) IsReversal() bool { return e.Reverts != "" }

// =============================================================================
// STOCK LEDGER ENTRY
// =============================================================================

// StockEntry is one immutable signed stock movement. Positive Quantity is
// an inward receipt, negative an outward issue. Valuation is never stored
// on the row; it is recomputed by replaying rows in (Date, Seq, Name) order
// through the costing queue.
type StockEntry struct {
	Name          string
	Date          time.Time
	Item          string
	Location      string
	Batch         string // optional
	SerialNumber  string // optional
	Rate          decimal.Decimal
	Quantity      decimal.Decimal // signed
	ReferenceType string
	ReferenceName string
	Seq           int64 // creation sequence, assigned by the store
}

// SlotKey identifies the costing slot a stock entry belongs to.
type SlotKey struct {
	Item     string
	Location string
	Batch    string
}

// Slot returns the costing slot key for the entry.
func (e StockEntry) Slot() SlotKey {
	return SlotKey{Item: e.Item, Location: e.Location, Batch: e.Batch}
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// DocStatus is the lifecycle state of a transactional document.
type DocStatus string

const (
	StatusDraft     DocStatus = "Draft"
	StatusSubmitted DocStatus = "Submitted"
	StatusCancelled DocStatus = "Cancelled"
)

// DocumentRecord is the persisted shell of a transactional document: its
// identity, lifecycle state, and serialized payload. The typed document
// variants live in the posting package; the store only sees this record.
type DocumentRecord struct {
	Name      string
	Kind      string
	Date      time.Time
	Status    DocStatus
	Data      []byte // JSON payload of the typed document
	CreatedAt time.Time
}

// =============================================================================
// SETTINGS
// =============================================================================

// CostingMethod selects how outward stock movements are valued.
type CostingMethod string

const (
	CostingFIFO          CostingMethod = "FIFO"
	CostingMovingAverage CostingMethod = "MovingAverage"
)

// Settings carries the ambient configuration the engines need. It is an
// explicit value handed to the posting engine and report builders at call
// time, never a process-wide singleton.
type Settings struct {
	CostingMethod    CostingMethod
	FiscalYearStart  string // "MM-DD"
	HideGroupAmounts bool   // default for report rendering
}

// DefaultSettings returns the settings used when no configuration is loaded.
func DefaultSettings() Settings {
	return Settings{
		CostingMethod:   CostingFIFO,
		FiscalYearStart: "01-01",
	}
}
