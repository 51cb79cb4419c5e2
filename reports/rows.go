// Package reports builds financial statements from posted ledger data:
// the account tree aggregator and the Balance Sheet, Profit & Loss,
// Trial Balance, and General Ledger generators on top of it.
package reports

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT ROWS - Presentation-agnostic output structure
// =============================================================================

// Align is a cell alignment hint for the presentation layer.
type Align string

const (
	AlignLeft  Align = "left"
	AlignRight Align = "right"
)

// Cell is one rendered report cell. RawValue keeps the unformatted value
// for consumers that re-format or export.
type Cell struct {
	Value    string `json:"value"`
	RawValue any    `json:"rawValue,omitempty"`
	Align    Align  `json:"align,omitempty"`
	Width    int    `json:"width,omitempty"`
	Bold     bool   `json:"bold,omitempty"`
	Indent   int    `json:"indent,omitempty"`
	Color    string `json:"color,omitempty"`
}

// Row is one ordered report row.
type Row struct {
	Cells   []Cell `json:"cells"`
	Level   int    `json:"level"`
	IsGroup bool   `json:"isGroup"`
}

// textCell renders a left-aligned label cell.
func textCell(value string, indent int, bold bool) Cell {
	return Cell{Value: value, RawValue: value, Align: AlignLeft, Indent: indent, Bold: bold}
}

// moneyCell renders a right-aligned amount cell. Zero renders blank so
// sparse trees stay readable.
func moneyCell(amount decimal.Decimal, bold bool) Cell {
	c := Cell{RawValue: amount, Align: AlignRight, Bold: bold}
	if !amount.IsZero() {
		c.Value = amount.StringFixed(2)
		if amount.IsNegative() {
			c.Color = "red"
		}
	}
	return c
}
