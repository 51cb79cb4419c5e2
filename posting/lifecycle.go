/*
lifecycle.go - Transactional document state machine

PURPOSE:
  Drives any transactional document through
  Draft -> Submitted -> Cancelled and invokes the posting engine at the
  right transitions:

    Submit:  validate document, build posting, validate posting, then
             atomically write ledger rows + stock rows + status change.
    Cancel:  atomically write mirrored reversal rows, remove the
             document's stock rows, and mark it Cancelled.
    Delete:  permitted from Draft or Cancelled only; cascades away every
             ledger and stock row referencing the document.

  A failed submit aborts the transition: the document stays Draft and
  nothing is persisted.
*/
package posting

import (
	"context"

	"github.com/inkwell-books/inkwell/books"
)

// Lifecycle runs document state transitions against a transactional store.
type Lifecycle struct {
	Store    books.TxStore
	Settings books.Settings
}

// NewLifecycle wires a lifecycle to its store and settings.
func NewLifecycle(st books.TxStore, settings books.Settings) *Lifecycle {
	return &Lifecycle{Store: st, Settings: settings}
}

// Submit moves doc from Draft to Submitted, posting its ledger and stock
// effects atomically. Any validation failure leaves the document Draft
// with nothing written.
func (l *Lifecycle) Submit(ctx context.Context, doc Document) error {
	rec, err := l.Store.Document(ctx, doc.DocKind(), doc.DocName())
	if err != nil {
		return err
	}
	if rec.Status != books.StatusDraft {
		return books.ErrNotSubmittable
	}

	if err := doc.Validate(ctx, l.Store); err != nil {
		return err
	}
	p, err := doc.BuildPosting(ctx, l.Store, l.Settings)
	if err != nil {
		return err
	}
	if p != nil {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	var stockRows []books.StockEntry
	if sd, ok := doc.(StockDocument); ok {
		stockRows, err = sd.BuildStockEntries(ctx, l.Store, l.Settings)
		if err != nil {
			return err
		}
	}

	return l.Store.WithTx(ctx, func(st books.Store) error {
		if p != nil {
			if err := p.Post(ctx, st); err != nil {
				return err
			}
		}
		if len(stockRows) > 0 {
			if err := st.InsertStockEntries(ctx, stockRows); err != nil {
				return err
			}
		}
		return st.UpdateDocumentStatus(ctx, doc.DocKind(), doc.DocName(), books.StatusSubmitted)
	})
}

// Cancel moves doc from Submitted to Cancelled. Ledger effects are undone
// with mirrored reversal rows; stock rows, which carry no reversal
// concept, are removed.
func (l *Lifecycle) Cancel(ctx context.Context, doc Document) error {
	rec, err := l.Store.Document(ctx, doc.DocKind(), doc.DocName())
	if err != nil {
		return err
	}
	if rec.Status != books.StatusSubmitted {
		return books.ErrNotCancellable
	}

	return l.Store.WithTx(ctx, func(st books.Store) error {
		if err := Reverse(ctx, st, doc.DocKind(), doc.DocName()); err != nil {
			return err
		}
		if err := st.DeleteStockEntriesByReference(ctx, doc.DocKind(), doc.DocName()); err != nil {
			return err
		}
		return st.UpdateDocumentStatus(ctx, doc.DocKind(), doc.DocName(), books.StatusCancelled)
	})
}

// Delete removes doc and cascades away every ledger and stock row
// referencing it. Submitted documents must be cancelled first.
func (l *Lifecycle) Delete(ctx context.Context, kind, name string) error {
	rec, err := l.Store.Document(ctx, kind, name)
	if err != nil {
		return err
	}
	if rec.Status == books.StatusSubmitted {
		return books.ErrNotDeletable
	}

	return l.Store.WithTx(ctx, func(st books.Store) error {
		if err := DeleteFor(ctx, st, kind, name); err != nil {
			return err
		}
		if err := st.DeleteStockEntriesByReference(ctx, kind, name); err != nil {
			return err
		}
		return st.DeleteDocument(ctx, kind, name)
	})
}
