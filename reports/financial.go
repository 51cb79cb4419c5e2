/*
financial.go - Report generators

PURPOSE:
  Renders the aggregated account trees into the four financial statements:
  Balance Sheet, Profit & Loss, Trial Balance, and the General Ledger
  listing. Output is the presentation-agnostic Row/Cell structure; layout
  and styling belong to the consumer.

CONVENTIONS:
  - Balance Sheet buckets are cumulative: each requested date becomes an
    unbounded-history range ending at that date.
  - Profit & Loss buckets are the caller's periods.
  - Trial Balance runs one period against unbounded opening history and
    derives closing = opening + period per account.
  - Synthetic total rows (Total Asset, Net Profit, ...) are appended after
    the trees they summarize and are always bold.
*/
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inkwell-books/inkwell/books"
)

const dateLayout = "02 Jan 2006"

// =============================================================================
// BALANCE SHEET
// =============================================================================

// BalanceSheet renders Asset, Liability, and Equity trees as at each of
// the given dates.
func BalanceSheet(ctx context.Context, st books.Store, settings books.Settings, dates []time.Time) ([]Row, error) {
	ranges := make([]DateRange, len(dates))
	labels := make([]string, len(dates))
	for i, d := range dates {
		ranges[i] = DateRange{To: d}
		labels[i] = d.Format(dateLayout)
	}

	tree, err := BuildTree(ctx, st, TreeOptions{
		RootTypes:      []books.RootType{books.RootTypeAsset, books.RootTypeLiability, books.RootTypeEquity},
		Ranges:         ranges,
		HideZeroGroups: settings.HideGroupAmounts,
	})
	if err != nil {
		return nil, err
	}

	rows := []Row{headerRow("Account", labels)}
	for _, rt := range tree.RootTypes() {
		rows = append(rows, treeRows(tree, rt)...)
		rows = append(rows, totalRow(fmt.Sprintf("Total %s", rt), tree.Total(rt), rt))
		rows = append(rows, blankRow(len(labels)+1))
	}
	return rows, nil
}

// =============================================================================
// PROFIT AND LOSS
// =============================================================================

// ProfitAndLoss renders Income and Expense trees over the given periods
// and appends the derived Net Profit row per bucket.
func ProfitAndLoss(ctx context.Context, st books.Store, settings books.Settings, periods []DateRange) ([]Row, error) {
	tree, err := BuildTree(ctx, st, TreeOptions{
		RootTypes:      []books.RootType{books.RootTypeIncome, books.RootTypeExpense},
		Ranges:         periods,
		HideZeroGroups: settings.HideGroupAmounts,
	})
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(periods))
	for i, r := range periods {
		labels[i] = rangeLabel(r)
	}

	rows := []Row{headerRow("Account", labels)}
	for _, rt := range tree.RootTypes() {
		rows = append(rows, treeRows(tree, rt)...)
		rows = append(rows, totalRow(fmt.Sprintf("Total %s", rt), tree.Total(rt), rt))
		rows = append(rows, blankRow(len(labels)+1))
	}

	// Net Profit = Total Income - Total Expense, per bucket, from the
	// already-aggregated root totals.
	income := tree.Total(books.RootTypeIncome)
	expense := tree.Total(books.RootTypeExpense)
	cells := []Cell{textCell("Net Profit", 0, true)}
	for i := range periods {
		net := income[i].Balance(books.RootTypeIncome).Sub(expense[i].Balance(books.RootTypeExpense))
		cells = append(cells, moneyCell(net, true))
	}
	rows = append(rows, Row{Cells: cells, IsGroup: true})
	return rows, nil
}

// =============================================================================
// TRIAL BALANCE
// =============================================================================

// TrialBalance renders every account over [from, to] with opening, period
// debit/credit, and derived closing columns.
func TrialBalance(ctx context.Context, st books.Store, settings books.Settings, from, to time.Time) ([]Row, error) {
	opening := DateRange{To: from.Add(-time.Nanosecond)}
	period := DateRange{From: from, To: to}

	tree, err := BuildTree(ctx, st, TreeOptions{
		RootTypes:      books.RootTypes,
		Ranges:         []DateRange{opening, period},
		HideZeroGroups: settings.HideGroupAmounts,
	})
	if err != nil {
		return nil, err
	}

	rows := []Row{headerRow("Account", []string{
		"Opening (Dr)", "Opening (Cr)", "Debit", "Credit", "Closing (Dr)", "Closing (Cr)",
	})}

	grand := Value{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, rt := range tree.RootTypes() {
		for _, n := range tree.Flatten(rt) {
			openingNet := n.Values[0].Debit.Sub(n.Values[0].Credit)
			closingNet := openingNet.Add(n.Values[1].Debit).Sub(n.Values[1].Credit)
			rows = append(rows, Row{
				Cells: []Cell{
					textCell(n.Name, n.Level, n.IsGroup),
					moneyCell(debitSide(openingNet), n.IsGroup),
					moneyCell(creditSide(openingNet), n.IsGroup),
					moneyCell(n.Values[1].Debit, n.IsGroup),
					moneyCell(n.Values[1].Credit, n.IsGroup),
					moneyCell(debitSide(closingNet), n.IsGroup),
					moneyCell(creditSide(closingNet), n.IsGroup),
				},
				Level:   n.Level,
				IsGroup: n.IsGroup,
			})
			if !n.IsGroup {
				grand = grand.Add(n.Values[1])
			}
		}
		total := tree.Total(rt)
		if !total[0].IsZero() || !total[1].IsZero() {
			rows = append(rows, Row{
				Cells: []Cell{
					textCell(fmt.Sprintf("Total %s", rt), 0, true),
					Cell{Align: AlignRight}, Cell{Align: AlignRight},
					moneyCell(total[1].Debit, true),
					moneyCell(total[1].Credit, true),
					Cell{Align: AlignRight}, Cell{Align: AlignRight},
				},
				IsGroup: true,
			})
		}
	}

	rows = append(rows, Row{
		Cells: []Cell{
			textCell("Total", 0, true),
			Cell{Align: AlignRight}, Cell{Align: AlignRight},
			moneyCell(grand.Debit, true),
			moneyCell(grand.Credit, true),
			Cell{Align: AlignRight}, Cell{Align: AlignRight},
		},
		IsGroup: true,
	})
	return rows, nil
}

// =============================================================================
// GENERAL LEDGER
// =============================================================================

// GeneralLedger lists filtered ledger entries chronologically with running
// debit/credit totals.
func GeneralLedger(ctx context.Context, st books.Store, f books.LedgerFilter) ([]Row, error) {
	entries, err := st.LedgerEntries(ctx, f)
	if err != nil {
		return nil, err
	}

	rows := []Row{headerRow("Date", []string{
		"Account", "Party", "Reference", "Debit", "Credit", "Balance",
	})}

	running := decimal.Zero
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, e := range entries {
		running = running.Add(e.Debit).Sub(e.Credit)
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
		rows = append(rows, Row{Cells: []Cell{
			textCell(e.Date.Format(dateLayout), 0, false),
			textCell(e.Account, 0, false),
			textCell(e.Party, 0, false),
			textCell(fmt.Sprintf("%s %s", e.ReferenceType, e.ReferenceName), 0, false),
			moneyCell(e.Debit, false),
			moneyCell(e.Credit, false),
			moneyCell(running, false),
		}})
	}

	rows = append(rows, Row{
		Cells: []Cell{
			textCell("Total", 0, true),
			textCell("", 0, false),
			textCell("", 0, false),
			textCell("", 0, false),
			moneyCell(totalDebit, true),
			moneyCell(totalCredit, true),
			moneyCell(running, true),
		},
		IsGroup: true,
	})
	return rows, nil
}

// =============================================================================
// ROW HELPERS
// =============================================================================

func headerRow(first string, labels []string) Row {
	cells := []Cell{textCell(first, 0, true)}
	for _, l := range labels {
		cells = append(cells, Cell{Value: l, RawValue: l, Align: AlignRight, Bold: true})
	}
	return Row{Cells: cells, IsGroup: true}
}

func treeRows(tree *Tree, rt books.RootType) []Row {
	var rows []Row
	for _, n := range tree.Flatten(rt) {
		cells := []Cell{textCell(n.Name, n.Level, n.IsGroup)}
		for i := range tree.Ranges {
			cells = append(cells, moneyCell(n.Balance(i), n.IsGroup))
		}
		rows = append(rows, Row{Cells: cells, Level: n.Level, IsGroup: n.IsGroup})
	}
	return rows
}

func totalRow(label string, totals []Value, rt books.RootType) Row {
	cells := []Cell{textCell(label, 0, true)}
	for _, v := range totals {
		cells = append(cells, moneyCell(v.Balance(rt), true))
	}
	return Row{Cells: cells, IsGroup: true}
}

func blankRow(width int) Row {
	cells := make([]Cell, width)
	return Row{Cells: cells}
}

func rangeLabel(r DateRange) string {
	if r.From.IsZero() {
		return r.To.Format(dateLayout)
	}
	return fmt.Sprintf("%s - %s", r.From.Format(dateLayout), r.To.Format(dateLayout))
}

// debitSide renders a net amount on the debit column: positive nets show
// there, negative nets show on the credit side.
func debitSide(net decimal.Decimal) decimal.Decimal {
	if net.IsPositive() {
		return net
	}
	return decimal.Zero
}

func creditSide(net decimal.Decimal) decimal.Decimal {
	if net.IsNegative() {
		return net.Neg()
	}
	return decimal.Zero
}
