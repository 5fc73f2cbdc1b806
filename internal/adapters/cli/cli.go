package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"desathor/internal/adapters/repl"
	"desathor/internal/app"
	"desathor/internal/core"
	"desathor/internal/desadv"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the desathor command tree on top of svc.
func NewRootCommand(svc app.ApplicationService, in io.Reader) *cobra.Command {
	root := &cobra.Command{
		Use:   "desathor",
		Short: "Reconcile purchase orders against delivery notes",
		Long: `desathor reads purchase order and delivery note PDFs, matches their lines
by order number and product, and reports quantity differences and service rates.

Without a subcommand the interactive REPL starts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl.Run(cmd.Context(), svc, bufio.NewReader(in), cmd.OutOrStdout())
		},
	}
	root.AddCommand(
		newCompareCommand(svc),
		newDESADVCommand(svc),
		newHashPasswordCommand(),
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return repl.Run(cmd.Context(), svc, bufio.NewReader(in), cmd.OutOrStdout())
			},
		},
	)
	return root
}

func newCompareCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare purchase orders with delivery notes",
		Long: `Compare purchase orders with delivery notes.

Examples:
  desathor compare --orders cde1.pdf,cde2.pdf --deliveries bl.pdf
  desathor compare -o cde.pdf -d bl.pdf --xlsx ./reports --show-unmatched
  desathor compare -o cde.pdf -d bl.pdf --json`,
		Args: cobra.NoArgs,
		RunE: runCompare(svc),
	}
	cmd.Flags().StringSliceP("orders", "o", nil, "purchase order PDF files (comma-separated or repeated)")
	cmd.Flags().StringSliceP("deliveries", "d", nil, "delivery note PDF files (comma-separated or repeated)")
	cmd.Flags().String("xlsx", "", "write the Excel report to this file or directory")
	cmd.Flags().Bool("show-unmatched", false, "keep orders with nothing delivered")
	cmd.Flags().Bool("json", false, "print the run as JSON")
	return cmd
}

func runCompare(svc app.ApplicationService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		orderPaths, _ := cmd.Flags().GetStringSlice("orders")
		deliveryPaths, _ := cmd.Flags().GetStringSlice("deliveries")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		showUnmatched, _ := cmd.Flags().GetBool("show-unmatched")
		asJSON, _ := cmd.Flags().GetBool("json")

		if len(orderPaths) == 0 || len(deliveryPaths) == 0 {
			return core.ErrMissingInput
		}
		orders, err := repl.ReadDocuments(orderPaths)
		if err != nil {
			return err
		}
		deliveries, err := repl.ReadDocuments(deliveryPaths)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		sess, err := svc.StartLocalSession(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = svc.EndSession(ctx, sess.SessionID) }()

		run, err := svc.RunComparison(ctx, sess.SessionID, app.CompareRequest{
			Orders:        orders,
			Deliveries:    deliveries,
			HideUnmatched: !showUnmatched,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(run); err != nil {
				return err
			}
		} else {
			repl.PrintRun(out, run)
			for _, o := range run.Orders {
				repl.PrintOrder(out, o)
			}
		}

		if xlsxPath != "" {
			path, err := repl.ExportLatest(ctx, svc, sess.SessionID, xlsxPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
		}
		return nil
	}
}

func newDESADVCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "desadv",
		Short: "Check the EDI portals for dispatch advices to send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStr, _ := cmd.Flags().GetString("date")
			asJSON, _ := cmd.Flags().GetBool("json")

			var day time.Time
			if dateStr != "" {
				d, err := desadv.ParseDay(dateStr)
				if err != nil {
					return err
				}
				day = d
			}

			ctx := cmd.Context()
			sess, err := svc.StartLocalSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = svc.EndSession(ctx, sess.SessionID) }()

			rep, err := svc.CheckDESADV(ctx, sess.SessionID, day)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			repl.PrintDESADV(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().String("date", "", "delivery day as dd/mm/yyyy (default: tomorrow)")
	cmd.Flags().Bool("json", false, "print the report as JSON")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a credential table entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("password must not be empty")
			}
			hash, err := core.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
