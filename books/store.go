/*
store.go - Persistence interface for the accounting core

PURPOSE:
  Defines the contract between the engines and the database. Entries are
  effectively append-only facts: ledger rows are never updated except for
  the Reverted flag, and are only deleted as a cascade when their owning
  document is deleted.

KEY INTERFACES:
  Store:   Typed row operations for ledger entries, stock entries,
           accounts, and document records
  TxStore: Store plus WithTx for atomic multi-row writes

ATOMIC WRITES:
  Posting a document writes several ledger rows, possibly stock rows, and a
  status update. WithTx ensures all-or-nothing semantics: partial postings
  are never visible.

IMPLEMENTATIONS:
  - books/store/memory.go: In-memory, used by tests and the dev server
  - store/sqlite/sqlite.go: SQLite-backed

SEE ALSO:
  - posting/: The only writer of ledger rows
  - reports/: Read-only consumer
*/
package books

import (
	"context"
	"time"
)

// =============================================================================
// QUERY FILTERS
// =============================================================================

// LedgerFilter narrows a ledger entry query. Zero fields are ignored.
// From/To bound the entry date inclusively.
type LedgerFilter struct {
	Account       string
	Party         string
	ReferenceType string
	ReferenceName string
	From          *time.Time
	To            *time.Time
}

// StockFilter narrows a stock entry query. Results are always ordered by
// the replay key (Date, Seq, Name). OnOrBefore bounds the entry date
// inclusively; ExcludeReference drops rows owned by the named document.
type StockFilter struct {
	Item             string
	Location         string
	OnOrBefore       *time.Time
	ExcludeReference string
}

// =============================================================================
// STORE
// =============================================================================

// Store is the persistence collaborator. Writes are serialized per document
// by the calling layer; reads run against whatever data currently exists.
type Store interface {
	// Ledger entries. InsertLedgerEntries rejects duplicate names.
	// MarkReverted is the single sanctioned mutation of a posted row.
	InsertLedgerEntries(ctx context.Context, entries []LedgerEntry) error
	LedgerEntries(ctx context.Context, f LedgerFilter) ([]LedgerEntry, error)
	MarkReverted(ctx context.Context, name string) error
	DeleteLedgerEntriesByReference(ctx context.Context, refType, refName string) error

	// Stock entries. The store assigns Seq monotonically on insert.
	InsertStockEntries(ctx context.Context, entries []StockEntry) error
	StockEntries(ctx context.Context, f StockFilter) ([]StockEntry, error)
	DeleteStockEntriesByReference(ctx context.Context, refType, refName string) error

	// Account catalog.
	InsertAccount(ctx context.Context, a Account) error
	Account(ctx context.Context, name string) (*Account, error)
	Accounts(ctx context.Context) ([]Account, error)

	// Document records.
	InsertDocument(ctx context.Context, d DocumentRecord) error
	Document(ctx context.Context, kind, name string) (*DocumentRecord, error)
	Documents(ctx context.Context, kind string) ([]DocumentRecord, error)
	UpdateDocumentStatus(ctx context.Context, kind, name string, status DocStatus) error
	DeleteDocument(ctx context.Context, kind, name string) error
	Exists(ctx context.Context, kind, name string) (bool, error)
}

// TxStore wraps Store with transaction support. Use it whenever an
// operation must write multiple rows atomically (submit, cancel, delete).
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view of the store.
	// If fn returns an error the transaction is rolled back, otherwise
	// it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
