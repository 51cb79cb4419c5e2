/*
replay.go - Stock ledger replayer

PURPOSE:
  Replays ordered raw stock rows through costing slots to produce valued
  rows. Every valuation figure in the system (COGS, stock balance) comes
  out of this replay; nothing is cached or persisted.

ORDERING:
  Rows replay in (date, creation sequence, name) order. The store returns
  them that way already; Replay re-sorts defensively so callers can hand it
  rows from any source.

FALLBACK POLICY:
  When a slot cannot cover an outward consumption (ErrRateUnavailable), the
  computed row's incoming rate falls back to the row's own listed rate.
  This is the single fallback policy applied everywhere.

SEE ALSO:
  - queue.go: Slot arithmetic
  - balance.go: Buckets computed rows into the stock balance report
*/
package stock

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// =============================================================================
// COMPUTED ROW
// =============================================================================

// ComputedRow is one replayed stock row with its valuation figures.
type ComputedRow struct {
	books.StockEntry

	BalanceQuantity decimal.Decimal // slot quantity after this row
	IncomingRate    decimal.Decimal // rate returned by inward/outward
	ValuationRate   decimal.Decimal // per configured costing method
	BalanceValue    decimal.Decimal // slot value after this row
	ValueChange     decimal.Decimal // balance value delta caused by this row
}

// =============================================================================
// REPLAYER
// =============================================================================

// Replayer replays raw stock rows through costing slots.
type Replayer struct {
	Method books.CostingMethod
}

// Replay runs rows through their slots sequentially and returns one
// computed row per input row. Zero-quantity rows are skipped. The queue
// holding final slot state is returned alongside for callers that need to
// continue consuming from it (COGS).
func (r *Replayer) Replay(rows []books.StockEntry) ([]ComputedRow, *Queue, error) {
	ordered := make([]books.StockEntry, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		if ordered[i].Seq != ordered[j].Seq {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].Name < ordered[j].Name
	})

	queue := NewQueue()
	computed := make([]ComputedRow, 0, len(ordered))

	for _, row := range ordered {
		if row.Quantity.IsZero() {
			continue
		}

		slot := queue.Slot(row.Slot())
		valueBefore := slot.CurrentValue()

		var incomingRate decimal.Decimal
		var err error
		if row.Quantity.IsPositive() {
			incomingRate, err = slot.Inward(row.Rate, row.Quantity)
		} else {
			incomingRate, err = slot.Outward(row.Quantity.Neg())
			if errors.Is(err, books.ErrRateUnavailable) {
				incomingRate = row.Rate
				err = nil
			}
		}
		if err != nil {
			return nil, nil, err
		}

		balanceValue := slot.CurrentValue()
		computed = append(computed, ComputedRow{
			StockEntry:      row,
			BalanceQuantity: slot.CurrentQuantity(),
			IncomingRate:    incomingRate,
			ValuationRate:   slot.ValuationRate(r.Method),
			BalanceValue:    balanceValue,
			ValueChange:     balanceValue.Sub(valueBefore),
		})
	}
	return computed, queue, nil
}
