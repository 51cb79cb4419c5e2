/*
balance.go - Stock balance report

PURPOSE:
  Buckets replayed stock rows per (item, location, batch) slot into
  opening / incoming / outgoing / closing figures for a report window.

BUCKETING RULES:
  - Rows dated strictly before fromDate accumulate into opening.
  - Rows within [fromDate, toDate] accumulate into incoming (quantity > 0)
    or outgoing (quantity < 0, stored as positive magnitudes).
  - Rows after toDate are excluded from the replay scope entirely.
  - Balance quantity/value and valuation rate always reflect the most
    recent in-scope row for the slot.
*/
package stock

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

// BalanceRow is the stock balance report line for one slot.
type BalanceRow struct {
	Item     string
	Location string
	Batch    string

	OpeningQuantity decimal.Decimal
	OpeningValue    decimal.Decimal
	InQuantity      decimal.Decimal
	InValue         decimal.Decimal
	OutQuantity     decimal.Decimal // positive magnitude
	OutValue        decimal.Decimal // positive magnitude

	BalanceQuantity decimal.Decimal
	BalanceValue    decimal.Decimal
	ValuationRate   decimal.Decimal
}

// BalanceFilter narrows the report scope.
type BalanceFilter struct {
	Item     string
	Location string
	From     time.Time
	To       time.Time
}

// BalanceReport replays all stock rows dated on or before f.To and buckets
// them per slot against [f.From, f.To].
func BalanceReport(ctx context.Context, st books.Store, method books.CostingMethod, f BalanceFilter) ([]BalanceRow, error) {
	rows, err := st.StockEntries(ctx, books.StockFilter{
		Item:       f.Item,
		Location:   f.Location,
		OnOrBefore: &f.To,
	})
	if err != nil {
		return nil, err
	}

	replayer := Replayer{Method: method}
	computed, _, err := replayer.Replay(rows)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[books.SlotKey]*BalanceRow)
	var order []books.SlotKey
	for _, row := range computed {
		key := row.Slot()
		bucket, ok := bySlot[key]
		if !ok {
			bucket = &BalanceRow{
				Item:            key.Item,
				Location:        key.Location,
				Batch:           key.Batch,
				OpeningQuantity: decimal.Zero,
				OpeningValue:    decimal.Zero,
				InQuantity:      decimal.Zero,
				InValue:         decimal.Zero,
				OutQuantity:     decimal.Zero,
				OutValue:        decimal.Zero,
			}
			bySlot[key] = bucket
			order = append(order, key)
		}

		switch {
		case row.Date.Before(f.From):
			bucket.OpeningQuantity = bucket.OpeningQuantity.Add(row.Quantity)
			bucket.OpeningValue = bucket.OpeningValue.Add(row.ValueChange)
		case row.Quantity.IsPositive():
			bucket.InQuantity = bucket.InQuantity.Add(row.Quantity)
			bucket.InValue = bucket.InValue.Add(row.ValueChange)
		default:
			bucket.OutQuantity = bucket.OutQuantity.Add(row.Quantity.Neg())
			bucket.OutValue = bucket.OutValue.Add(row.ValueChange.Neg())
		}

		bucket.BalanceQuantity = row.BalanceQuantity
		bucket.BalanceValue = row.BalanceValue
		bucket.ValuationRate = row.ValuationRate
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].Item != order[j].Item {
			return order[i].Item < order[j].Item
		}
		if order[i].Location != order[j].Location {
			return order[i].Location < order[j].Location
		}
		return order[i].Batch < order[j].Batch
	})

	result := make([]BalanceRow, 0, len(order))
	for _, key := range order {
		result = append(result, *bySlot[key])
	}
	return result, nil
}
