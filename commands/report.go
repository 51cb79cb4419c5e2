/*
report.go - Report rendering commands

PURPOSE:
  Runs the report generators against the configured store and renders
  their rows as aligned text on stdout.

COMMANDS:
  inkwell report balance-sheet    --dates 2026-03-31,2027-03-31
  inkwell report profit-and-loss  --from 2026-04-01 --to 2027-03-31
  inkwell report trial-balance    --from 2026-04-01 --to 2027-03-31
  inkwell report general-ledger   [--account X] [--party Y] [--from] [--to]
  inkwell report stock-balance    --from 2026-04-01 --to 2027-03-31

SEE ALSO:
  - reports/financial.go: Report generators
  - stock/balance.go: Stock balance report
*/
package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-books/inkwell/books"
	"github.com/inkwell-books/inkwell/reports"
	"github.com/inkwell-books/inkwell/stock"
)

const dateFlag = "2006-01-02"

func newReportCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render financial and stock reports",
	}

	cmd.AddCommand(newBalanceSheetCommand(configPath))
	cmd.AddCommand(newProfitAndLossCommand(configPath))
	cmd.AddCommand(newTrialBalanceCommand(configPath))
	cmd.AddCommand(newGeneralLedgerCommand(configPath))
	cmd.AddCommand(newStockBalanceCommand(configPath))

	return cmd
}

func newBalanceSheetCommand(configPath *string) *cobra.Command {
	var dates string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity as at one or more dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var parsed []time.Time
			for _, part := range strings.Split(dates, ",") {
				d, err := time.Parse(dateFlag, strings.TrimSpace(part))
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", part, err)
				}
				parsed = append(parsed, d.Add(24*time.Hour-time.Nanosecond))
			}
			return withReportStore(*configPath, func(ctx context.Context, st books.TxStore, settings books.Settings) error {
				rows, err := reports.BalanceSheet(ctx, st, settings, parsed)
				if err != nil {
					return err
				}
				renderRows(rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&dates, "dates", "", "comma-separated report dates, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("dates")

	return cmd
}

func newProfitAndLossCommand(configPath *string) *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "profit-and-loss",
		Short: "Income and expenses over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRange(fromFlag, toFlag)
			if err != nil {
				return err
			}
			return withReportStore(*configPath, func(ctx context.Context, st books.TxStore, settings books.Settings) error {
				rows, err := reports.ProfitAndLoss(ctx, st, settings,
					[]reports.DateRange{{From: from, To: to}})
				if err != nil {
					return err
				}
				renderRows(rows)
				return nil
			})
		},
	}

	addRangeFlags(cmd, &fromFlag, &toFlag)

	return cmd
}

func newTrialBalanceCommand(configPath *string) *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Per-account opening, period and closing totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRange(fromFlag, toFlag)
			if err != nil {
				return err
			}
			return withReportStore(*configPath, func(ctx context.Context, st books.TxStore, settings books.Settings) error {
				rows, err := reports.TrialBalance(ctx, st, settings, from, to)
				if err != nil {
					return err
				}
				renderRows(rows)
				return nil
			})
		},
	}

	addRangeFlags(cmd, &fromFlag, &toFlag)

	return cmd
}

func newGeneralLedgerCommand(configPath *string) *cobra.Command {
	var account, party, fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "general-ledger",
		Short: "Chronological entry listing with running balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := books.LedgerFilter{Account: account, Party: party}
			if fromFlag != "" {
				from, err := time.Parse(dateFlag, fromFlag)
				if err != nil {
					return fmt.Errorf("invalid from date: %w", err)
				}
				f.From = &from
			}
			if toFlag != "" {
				to, err := time.Parse(dateFlag, toFlag)
				if err != nil {
					return fmt.Errorf("invalid to date: %w", err)
				}
				to = to.Add(24*time.Hour - time.Nanosecond)
				f.To = &to
			}
			return withReportStore(*configPath, func(ctx context.Context, st books.TxStore, settings books.Settings) error {
				rows, err := reports.GeneralLedger(ctx, st, f)
				if err != nil {
					return err
				}
				renderRows(rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "filter by account")
	cmd.Flags().StringVar(&party, "party", "", "filter by party")
	cmd.Flags().StringVar(&fromFlag, "from", "", "period start, YYYY-MM-DD")
	cmd.Flags().StringVar(&toFlag, "to", "", "period end, YYYY-MM-DD")

	return cmd
}

func newStockBalanceCommand(configPath *string) *cobra.Command {
	var item, location, fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "stock-balance",
		Short: "Per-slot stock quantities and values over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRange(fromFlag, toFlag)
			if err != nil {
				return err
			}
			return withReportStore(*configPath, func(ctx context.Context, st books.TxStore, settings books.Settings) error {
				rows, err := stock.BalanceReport(ctx, st, settings.CostingMethod, stock.BalanceFilter{
					Item:     item,
					Location: location,
					From:     from,
					To:       to,
				})
				if err != nil {
					return err
				}
				renderStockRows(rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&item, "item", "", "filter by item")
	cmd.Flags().StringVar(&location, "location", "", "filter by location")
	addRangeFlags(cmd, &fromFlag, &toFlag)

	return cmd
}

// =============================================================================
// RENDERING
// =============================================================================

// withReportStore opens the configured store, runs fn, and closes it.
func withReportStore(configPath string, fn func(context.Context, books.TxStore, books.Settings) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(context.Background(), st, cfg.Settings())
}

// renderRows writes report rows as tab-aligned text. Indentation comes
// from the first cell's Indent hint.
func renderRows(rows []reports.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		parts := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			v := c.Value
			if i == 0 {
				v = strings.Repeat("  ", c.Indent) + v
			}
			parts[i] = v
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
	}
	w.Flush()
}

func renderStockRows(rows []stock.BalanceRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Item\tLocation\tBatch\tQty\tValue\tRate")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Item, r.Location, r.Batch,
			r.BalanceQuantity.String(),
			r.BalanceValue.StringFixed(2),
			r.ValuationRate.StringFixed(2))
	}
	w.Flush()
}

func addRangeFlags(cmd *cobra.Command, fromFlag, toFlag *string) {
	cmd.Flags().StringVar(fromFlag, "from", "", "period start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(toFlag, "to", "", "period end, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func parseRange(fromFlag, toFlag string) (time.Time, time.Time, error) {
	from, err := time.Parse(dateFlag, fromFlag)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := time.Parse(dateFlag, toFlag)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %w", err)
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}
