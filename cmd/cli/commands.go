package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/voucherledger/internal/adapter/http/dto"
	"github.com/iho/voucherledger/internal/domain"
	"github.com/iho/voucherledger/internal/usecase"
)

type options struct {
	baseURL string
	timeout time.Duration
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "voucherledger-cli",
		Short:         "VoucherLedger CLI tool",
		Long:          `A command line interface for the VoucherLedger API: balances, statements and vehicle merges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the VoucherLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		newBalanceCmd(opts),
		newLedgerCmd(opts),
		newTrialBalanceCmd(opts),
		newNextNumberCmd(opts),
		newMergeCmd(opts),
		newCompareCmd(opts),
		newRecoveryCmd(opts),
	)

	return rootCmd
}

func newBalanceCmd(opts *options) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance VEHICLE_ID",
		Short: "Show a vehicle's balance as of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if asOf != "" {
				query.Set("as_of", asOf)
			}

			var resp dto.BalanceResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/vehicles/"+url.PathEscape(args[0])+"/balance", query, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Balance of %s as of %s: %s %s\n", resp.VehicleID, resp.AsOf, money(resp.Amount), sideLabel(resp.Side))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Day to compute the balance for (YYYY-MM-DD, default today)")
	return cmd
}

func newLedgerCmd(opts *options) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "ledger VEHICLE_ID",
		Short: "Print a vehicle statement with running balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"start": {start}}
			if end != "" {
				query.Set("end", end)
			}

			var resp dto.LedgerResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/vehicles/"+url.PathEscape(args[0])+"/ledger", query, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.Vehicle != nil {
				fmt.Fprintf(out, "Ledger of %s from %s to %s\n", resp.Vehicle.Number, resp.StartDate, resp.EndDate)
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "DATE\tNO.\tNARRATION\tDEBIT\tCREDIT\tBALANCE")
			fmt.Fprintf(tw, "\t\tOpening balance\t\t\t%s\n", signed(resp.OpeningBalance))
			for _, line := range resp.Lines {
				v := line.Voucher
				debit, credit := "", ""
				if v.Side == domain.SideCredit {
					credit = money(v.Amount)
				} else {
					debit = money(v.Amount)
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", v.Date, v.VoucherNumber, truncate(v.Narration, 30), debit, credit, signed(line.RunningBalance))
			}
			fmt.Fprintf(tw, "\t\tTotal\t%s\t%s\t%s\n", money(resp.TotalDebit), money(resp.TotalCredit), signed(resp.ClosingBalance))
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day of the statement (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the statement (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newTrialBalanceCmd(opts *options) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance COMPANY_ID",
		Short: "List every active vehicle with its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if asOf != "" {
				query.Set("as_of", asOf)
			}

			var resp dto.TrialBalanceResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/companies/"+url.PathEscape(args[0])+"/trial-balance", query, &resp); err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Trial balance as of %s\n", resp.AsOf)
			fmt.Fprintln(tw, "VEHICLE\tDEBIT\tCREDIT")
			for _, row := range resp.Rows {
				debit, credit := money(row.Amount), ""
				if row.Side == domain.SideCredit {
					debit, credit = "", money(row.Amount)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Vehicle.Number, debit, credit)
			}
			fmt.Fprintf(tw, "TOTAL\t%s\t%s\n", money(resp.TotalDebit), money(resp.TotalCredit))
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Day of the trial balance (YYYY-MM-DD, default today)")
	return cmd
}

func newNextNumberCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next-number COMPANY_ID",
		Short: "Show the voucher number the next voucher would receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.VoucherNumberResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/companies/"+url.PathEscape(args[0])+"/next-voucher-number", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.VoucherNumber)
			return nil
		},
	}
}

var errMergeNotConfirmed = errors.New("merge is irreversible: the source vehicle is deleted; re-run with --yes to confirm")

func newMergeCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "merge SOURCE_VEHICLE_ID TARGET_VEHICLE_ID",
		Short: "Move every voucher of SOURCE to TARGET and delete SOURCE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errMergeNotConfirmed
			}

			source, target := args[0], args[1]
			var resp dto.MergeResponse
			err := opts.client().post(cmd.Context(),
				"/api/v1/vehicles/"+url.PathEscape(source)+"/merge",
				dto.MergeRequest{TargetVehicleID: target},
				"merge:"+source+":"+target,
				&resp,
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.AlreadyApplied {
				fmt.Fprintf(out, "%s was already merged into %s (%d vouchers)\n", source, target, resp.VouchersMoved)
				return nil
			}
			fmt.Fprintf(out, "Merged %s into %s: %d vouchers moved\n", source, target, resp.VouchersMoved)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the irreversible merge")
	return cmd
}

func newCompareCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compare VEHICLE_ID",
		Short: "Pair debits and credits of equal amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ComparisonResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/vehicles/"+url.PathEscape(args[0])+"/reconciliation", nil, &resp); err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "DATE\tNO.\tSIDE\tAMOUNT\tSTATUS")
			for _, e := range resp.Entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Voucher.Date, e.Voucher.VoucherNumber, e.Voucher.Side, money(e.Voucher.Amount), e.Status)
			}
			fmt.Fprintf(tw, "Matched pairs: %d\tunmatched debits: %s\tunmatched credits: %s\n",
				resp.MatchedPairs, money(resp.UnmatchedDebitTotal), money(resp.UnmatchedCreditTotal))
			return tw.Flush()
		},
	}
}

func newRecoveryCmd(opts *options) *cobra.Command {
	var (
		minDays     int
		minAmount   string
		groupPrefix int
	)

	cmd := &cobra.Command{
		Use:   "recovery COMPANY_ID",
		Short: "List vehicles with outstanding balances and no recent payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if cmd.Flags().Changed("min-days") {
				query.Set("min_days", strconv.Itoa(minDays))
			}
			if minAmount != "" {
				query.Set("min_amount", minAmount)
			}
			if groupPrefix > 0 {
				query.Set("group_prefix", strconv.Itoa(groupPrefix))
			}

			var resp dto.RecoveryResponse
			if err := opts.client().get(cmd.Context(), "/api/v1/companies/"+url.PathEscape(args[0])+"/recovery", query, &resp); err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "VEHICLE\tBALANCE\tLAST\tSTATUS")
			if len(resp.Groups) > 0 {
				for _, g := range resp.Groups {
					fmt.Fprintf(tw, "[%s]\t%s\t\t\n", g.Prefix, money(g.Total))
					writeRecoveryRows(tw, g.Entries)
				}
			} else {
				writeRecoveryRows(tw, resp.Entries)
			}
			fmt.Fprintf(tw, "TOTAL\t%s\t\t\n", money(resp.Total))
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&minDays, "min-days", usecase.DefaultRecoveryMinDays, "Minimum days since the last credit (server default when unset)")
	cmd.Flags().StringVar(&minAmount, "min-amount", "", "Only vehicles whose last credit was at least this amount")
	cmd.Flags().IntVar(&groupPrefix, "group-prefix", 0, "Group vehicles by the first N characters of their number")
	return cmd
}

func writeRecoveryRows(w io.Writer, entries []*dto.RecoveryEntryResponse) {
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Vehicle.Number, money(e.Balance), e.LastTransactionDate, e.Status)
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// signed renders a running balance as an amount with Dr or Cr.
func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.Abs().StringFixed(2) + " Cr"
	}
	return d.StringFixed(2) + " Dr"
}

func sideLabel(side domain.Side) string {
	if side == domain.SideCredit {
		return "Cr"
	}
	return "Dr"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
