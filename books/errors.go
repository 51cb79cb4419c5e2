/*
errors.go - Centralized error types for the accounting core

PURPOSE:
  All sentinel errors and structured error types in one place. Other
  packages wrap these with domain context; callers classify them with
  errors.Is and the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Posting errors   - Imbalance, negative amounts, lifecycle guards
  2. Costing errors   - Invalid or unavailable stock consumption
  3. Report errors    - Unbucketable entries
  4. Store errors     - Missing or duplicate rows

SEE ALSO:
  - posting/: Returns ImbalanceError from Validate
  - stock/: Returns ErrRateUnavailable from Outward
  - reports/: Returns BucketingError from tree construction
*/
package books

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrImbalancedPosting is returned when a posting's debit and credit
	// totals differ at validate time. The submit aborts and nothing is
	// persisted.
	ErrImbalancedPosting = errors.New("posting debits and credits do not balance")

	// ErrNegativeAmount is returned when a pending debit or credit line is
	// built with a negative amount.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrNotFound is returned when a referenced account, document, or entry
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when inserting a row whose name already
	// exists.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrRateUnavailable is returned when an outward consumption exceeds the
	// units available in a costing slot. It is not fatal: callers must apply
	// the documented fallback (the movement line's own listed rate), never
	// treat it as zero-cost consumption.
	ErrRateUnavailable = errors.New("no outward rate available")

	// ErrInvalidQuantity is returned for negative inward/outward quantities.
	ErrInvalidQuantity = errors.New("quantity must not be negative")

	// ErrNotSubmittable is returned when submitting a document that is not
	// in Draft.
	ErrNotSubmittable = errors.New("only draft documents can be submitted")

	// ErrNotCancellable is returned when cancelling a document that is not
	// Submitted.
	ErrNotCancellable = errors.New("only submitted documents can be cancelled")

	// ErrNotDeletable is returned when deleting a document that is still
	// Submitted.
	ErrNotDeletable = errors.New("submitted documents cannot be deleted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ImbalanceError reports the exact totals of an imbalanced posting.
type ImbalanceError struct {
	ReferenceType string
	ReferenceName string
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("posting for %s %s is imbalanced: debit %s, credit %s",
		e.ReferenceType, e.ReferenceName, e.TotalDebit, e.TotalCredit)
}

func (e *ImbalanceError) Unwrap() error { return ErrImbalancedPosting }

// NotFoundError identifies the missing row.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// BucketingError is fatal to report construction: a ledger entry's date
// falls outside every configured report range. Entries are never silently
// dropped.
type BucketingError struct {
	Entry string
	Date  time.Time
}

func (e *BucketingError) Error() string {
	return fmt.Sprintf("ledger entry %s dated %s falls outside all report ranges",
		e.Entry, e.Date.Format("2006-01-02"))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err is caused by invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrImbalancedPosting) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrDuplicateName)
}

// IsLifecycleError reports whether err is a document state-machine guard
// violation. The HTTP layer maps these to 409 Conflict.
func IsLifecycleError(err error) bool {
	return errors.Is(err, ErrNotSubmittable) ||
		errors.Is(err, ErrNotCancellable) ||
		errors.Is(err, ErrNotDeletable)
}
