package stock

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// TransferLine is one item line of an outward transfer document whose
// realized cost is being computed.
type TransferLine struct {
	Item     string
	Location string
	Batch    string
	Quantity decimal.Decimal
	Rate     decimal.Decimal // listed rate, used as fallback
}

// COGS computes the total realized cost of consuming the given lines on
// date. Slot state is rebuilt by replaying every stock row dated on or
// before date, excluding rows owned by refName itself, then each line is
// consumed from its slot. A missing slot or an uncoverable consumption
// falls back to the line's own listed rate.
func COGS(ctx context.Context, st books.Store, method books.CostingMethod, refName string, date time.Time, lines []TransferLine) (decimal.Decimal, error) {
	rows, err := st.StockEntries(ctx, books.StockFilter{
		OnOrBefore:       &date,
		ExcludeReference: refName,
	})
	if err != nil {
		return decimal.Zero, err
	}

	replayer := Replayer{Method: method}
	_, queue, err := replayer.Replay(rows)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity.IsNegative() {
			return decimal.Zero, books.ErrInvalidQuantity
		}
		if line.Quantity.IsZero() {
			continue
		}

		slot := queue.Peek(books.SlotKey{Item: line.Item, Location: line.Location, Batch: line.Batch})
		if slot == nil {
			total = total.Add(line.Rate.Mul(line.Quantity))
			continue
		}

		rate, err := slot.Outward(line.Quantity)
		if errors.Is(err, books.ErrRateUnavailable) {
			rate = line.Rate
		} else if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(rate.Mul(line.Quantity))
	}
	return total, nil
}
