/*
Package posting implements the double-entry ledger posting engine and the
transactional document lifecycle built on it.

PURPOSE:
  Turns business documents into balanced debit/credit ledger rows. The
  engine is the only writer of ledger entries in the system.

CRITICAL INVARIANTS:
  1. BALANCED: A posting persists only if sum(debit) == sum(credit), exactly.
  2. IMMUTABLE: Entries are never edited. Corrections are mirrored reversal
     rows; the original only gets its Reverted flag set.
  3. ATOMIC: All rows of one posting are written, or none.
  4. IDEMPOTENT REVERSAL: Reversing twice leaves exactly one reversal set.

WHY REVERSAL-BY-MIRRORED-ROW?
  Auditability depends on every posted fact being permanent. A reversal is
  a new entry with debit and credit swapped, linked to the original via
  Reverts. The pair nets to zero; history is preserved.

SEE ALSO:
  - lifecycle.go: Invokes the engine at document state transitions
  - documents.go: The document variants that build postings
*/
package posting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// =============================================================================
// POSTING BUILDER
// =============================================================================

// Line is one pending debit-or-credit line of an in-progress posting.
type Line struct {
	Account string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Posting assembles the balanced ledger rows for one business document.
// Build lines with Debit/Credit, check with Validate, persist with Post.
type Posting struct {
	ReferenceType string
	ReferenceName string
	Date          time.Time
	Party         string

	lines  []Line
	posted bool
}

// NewPosting starts an empty posting for the given document reference.
func NewPosting(refType, refName string, date time.Time) *Posting {
	return &Posting{ReferenceType: refType, ReferenceName: refName, Date: date}
}

// Debit appends a pending debit line. Amounts must be non-negative.
func (p *Posting) Debit(account string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return books.ErrNegativeAmount
	}
	p.lines = append(p.lines, Line{Account: account, Debit: amount, Credit: decimal.Zero})
	return nil
}

// Credit appends a pending credit line. Amounts must be non-negative.
func (p *Posting) Credit(account string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return books.ErrNegativeAmount
	}
	p.lines = append(p.lines, Line{Account: account, Debit: decimal.Zero, Credit: amount})
	return nil
}

// Lines returns the pending lines.
func (p *Posting) Lines() []Line { return p.lines }

// Validate fails with an ImbalanceError unless the pending debit and
// credit totals match exactly.
func (p *Posting) Validate() error {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, l := range p.lines {
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return &books.ImbalanceError{
			ReferenceType: p.ReferenceType,
			ReferenceName: p.ReferenceName,
			TotalDebit:    totalDebit,
			TotalCredit:   totalCredit,
		}
	}
	return nil
}

// Post persists one ledger entry per pending line, referencing the
// originating document. Callable at most once per document submission.
// Atomicity comes from the caller running Post inside Store.WithTx.
func (p *Posting) Post(ctx context.Context, st books.Store) error {
	if p.posted {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}

	entries := make([]books.LedgerEntry, 0, len(p.lines))
	for _, l := range p.lines {
		entries = append(entries, books.LedgerEntry{
			Name:          books.NewName("ALE"),
			Account:       l.Account,
			Party:         p.Party,
			Date:          p.Date,
			ReferenceType: p.ReferenceType,
			ReferenceName: p.ReferenceName,
			Debit:         l.Debit,
			Credit:        l.Credit,
			CreatedAt:     time.Now(),
		})
	}
	if err := st.InsertLedgerEntries(ctx, entries); err != nil {
		return err
	}
	p.posted = true
	return nil
}

// =============================================================================
// REVERSAL AND CASCADE DELETE
// =============================================================================

// Reverse loads every original, non-reverted entry referencing the
// document and writes a mirrored counterpart (debit and credit swapped,
// same date) for each, flagging the original Reverted and linking the
// mirror via Reverts. Idempotent: once every original is reverted, calling
// again is a no-op, not an error.
func Reverse(ctx context.Context, st books.Store, refType, refName string) error {
	entries, err := st.LedgerEntries(ctx, books.LedgerFilter{
		ReferenceType: refType,
		ReferenceName: refName,
	})
	if err != nil {
		return err
	}

	var mirrors []books.LedgerEntry
	var reverted []string
	for _, e := range entries {
		if e.Reverted || e.IsReversal() {
			continue
		}
		mirrors = append(mirrors, books.LedgerEntry{
			Name:          books.NewName("ALE"),
			Account:       e.Account,
			Party:         e.Party,
			Date:          e.Date,
			ReferenceType: e.ReferenceType,
			ReferenceName: e.ReferenceName,
			Debit:         e.Credit,
			Credit:        e.Debit,
			Reverts:       e.Name,
			CreatedAt:     time.Now(),
		})
		reverted = append(reverted, e.Name)
	}
	if len(mirrors) == 0 {
		return nil
	}

	if err := st.InsertLedgerEntries(ctx, mirrors); err != nil {
		return err
	}
	for _, name := range reverted {
		if err := st.MarkReverted(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFor removes every ledger entry (original and reversing) whose
// reference matches the document. Only valid once the document is no
// longer Submitted; the lifecycle enforces that guard.
func DeleteFor(ctx context.Context, st books.Store, refType, refName string) error {
	return st.DeleteLedgerEntriesByReference(ctx, refType, refName)
}
