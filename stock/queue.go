/*
Package stock implements inventory costing: the per-slot costing queue, the
stock ledger replayer built on it, cost-of-goods-sold computation, and the
stock balance report.

PURPOSE:
  Stock rows are stored raw (rate, signed quantity). Valuation is never
  persisted - it is recomputed by replaying rows through costing queues in
  (date, creation sequence, name) order. This file holds the queue itself:
  pure, in-memory, no I/O.

COSTING METHODS:
  FIFO:           Outward consumption draws from the oldest open lot first.
  Moving average: A running quantity-weighted average is maintained across
                  inwards; the valuation rate is totalValue/totalQuantity.

CRITICAL INVARIANT:
  totalQuantity never goes negative. Consuming more than is available is a
  caller error signaled as ErrRateUnavailable, never a fabricated negative
  balance.

SEE ALSO:
  - replay.go: Drives slots from persisted stock rows
  - cogs.go: Realized cost for a transfer document
*/
package stock

import (
	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// =============================================================================
// COSTING SLOT
// =============================================================================

// lot is one unconsumed inward parcel, FIFO-ordered.
type lot struct {
	rate     decimal.Decimal
	quantity decimal.Decimal
}

// Slot tracks open lots and moving-average aggregates for one
// (item, location, batch) combination. Transient: rebuilt by replay
// whenever needed, never persisted.
type Slot struct {
	lots          []lot
	totalQuantity decimal.Decimal
	totalValue    decimal.Decimal
	averageRate   decimal.Decimal
}

// NewSlot returns an empty costing slot.
func NewSlot() *Slot {
	return &Slot{
		totalQuantity: decimal.Zero,
		totalValue:    decimal.Zero,
		averageRate:   decimal.Zero,
	}
}

// Inward pushes a new lot to the back of the FIFO list and folds it into
// the moving average. Returns the rate unchanged as acknowledgement.
// A zero quantity is a no-op; a negative quantity is invalid.
func (s *Slot) Inward(rate, quantity decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, books.ErrInvalidQuantity
	}
	if quantity.IsZero() {
		return rate, nil
	}

	s.lots = append(s.lots, lot{rate: rate, quantity: quantity})

	newQuantity := s.totalQuantity.Add(quantity)
	newValue := s.totalValue.Add(rate.Mul(quantity))
	s.averageRate = newValue.Div(newQuantity)
	s.totalQuantity = newQuantity
	s.totalValue = newValue
	return rate, nil
}

// Outward consumes quantity units from the front of the lot list, oldest
// first, and returns the quantity-weighted average rate of the lots
// consumed. If fewer units are available than requested (including none),
// everything available is consumed and ErrRateUnavailable is returned -
// the caller must fall back to the movement line's own listed rate.
func (s *Slot) Outward(quantity decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, books.ErrInvalidQuantity
	}
	if quantity.IsZero() {
		return decimal.Zero, nil
	}

	remaining := quantity
	consumedValue := decimal.Zero
	consumedQuantity := decimal.Zero

	for len(s.lots) > 0 && remaining.IsPositive() {
		front := &s.lots[0]
		take := decimal.Min(front.quantity, remaining)

		consumedValue = consumedValue.Add(front.rate.Mul(take))
		consumedQuantity = consumedQuantity.Add(take)
		remaining = remaining.Sub(take)

		front.quantity = front.quantity.Sub(take)
		if front.quantity.IsZero() {
			s.lots = s.lots[1:]
		}
	}

	s.totalQuantity = s.totalQuantity.Sub(consumedQuantity)
	s.totalValue = s.totalValue.Sub(consumedValue)

	if remaining.IsPositive() {
		return decimal.Zero, books.ErrRateUnavailable
	}
	return consumedValue.Div(quantity), nil
}

// CurrentQuantity sums the remaining open lots.
func (s *Slot) CurrentQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lots {
		total = total.Add(l.quantity)
	}
	return total
}

// CurrentValue sums rate*quantity over the remaining open lots.
func (s *Slot) CurrentValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lots {
		total = total.Add(l.rate.Mul(l.quantity))
	}
	return total
}

// FIFORate returns the rate of the oldest remaining lot, zero if empty.
func (s *Slot) FIFORate() decimal.Decimal {
	if len(s.lots) == 0 {
		return decimal.Zero
	}
	return s.lots[0].rate
}

// MovingAverageRate returns the running quantity-weighted average rate.
func (s *Slot) MovingAverageRate() decimal.Decimal {
	return s.averageRate
}

// ValuationRate returns the slot's unit valuation under the given method.
func (s *Slot) ValuationRate(method books.CostingMethod) decimal.Decimal {
	if method == books.CostingMovingAverage {
		return s.MovingAverageRate()
	}
	return s.FIFORate()
}

// =============================================================================
// QUEUE - Slot collection keyed by (item, location, batch)
// =============================================================================

// Queue holds the costing slots for a replay scope.
type Queue struct {
	slots map[books.SlotKey]*Slot
}

// NewQueue returns an empty slot collection.
func NewQueue() *Queue {
	return &Queue{slots: make(map[books.SlotKey]*Slot)}
}

// Slot returns the slot for key, creating it if absent.
func (q *Queue) Slot(key books.SlotKey) *Slot {
	s, ok := q.slots[key]
	if !ok {
		s = NewSlot()
		q.slots[key] = s
	}
	return s
}

// Peek returns the slot for key without creating it, or nil.
func (q *Queue) Peek(key books.SlotKey) *Slot {
	return q.slots[key]
}
