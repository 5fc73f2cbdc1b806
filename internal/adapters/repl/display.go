package repl

import (
	"fmt"
	"io"
	"strings"

	"desathor/internal/app"
	"desathor/internal/core"
	"desathor/internal/desadv"
)

// PrintRun writes the per-order summaries, warnings and unmatched deliveries of a run.
func PrintRun(w io.Writer, run *app.RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  COMPARAISON %s  (%s)\n", run.ID, run.CreatedAt.Format("02/01/2006 15:04"))
	fmt.Fprintf(w, "  Commandes : %s\n", strings.Join(run.OrderFiles, ", "))
	fmt.Fprintf(w, "  BL        : %s\n", strings.Join(run.DeliveryFiles, ", "))
	fmt.Fprintln(w, strings.Repeat("=", 78))
	if len(run.Orders) == 0 {
		fmt.Fprintln(w, "  No order to display.")
	} else {
		printSummaryHeader(w)
		for _, o := range run.Orders {
			printSummaryLine(w, o.Summary)
		}
		fmt.Fprintln(w, strings.Repeat("-", 78))
		printSummaryLine(w, run.Total)
	}
	if len(run.HiddenOrders) > 0 {
		fmt.Fprintf(w, "  Hidden (nothing delivered): %s\n", strings.Join(run.HiddenOrders, ", "))
	}
	fmt.Fprintln(w, strings.Repeat("=", 78))

	if len(run.Unmatched) > 0 {
		fmt.Fprintln(w, "  Delivered without a matching order line:")
		for _, u := range run.Unmatched {
			fmt.Fprintf(w, "    %-12s %-14s %8s\n", u.OrderNumber, u.ProductID, u.DeliveredQty.String())
		}
	}
	for _, wn := range run.Warnings {
		fmt.Fprintf(w, "  WARNING [%s] %s: %s\n", wn.Kind, wn.File, wn.Message)
	}
}

func printSummaryHeader(w io.Writer) {
	fmt.Fprintf(w, "  %-14s %6s %10s %10s %10s %8s  %s\n",
		"COMMANDE", "LIGNES", "COMMANDE", "LIVRE", "MANQUANT", "TAUX", "OK/DIFF/ABSENT")
	fmt.Fprintln(w, strings.Repeat("-", 78))
}

func printSummaryLine(w io.Writer, s core.OrderSummary) {
	fmt.Fprintf(w, "  %-14s %6d %10s %10s %10s %7s%%  %d/%d/%d\n",
		s.OrderNumber, s.Lines, s.TotalOrdered.String(), s.TotalDelivered.String(),
		s.MissingQty.String(), s.ServiceRate.StringFixed(2),
		s.CountOK, s.CountQtyDiff, s.CountMissing)
}

// PrintOrder writes one order's reconciled table.
func PrintOrder(w io.Writer, o app.OrderView) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  COMMANDE %s  taux de service %s%%\n", o.Summary.OrderNumber, o.Summary.ServiceRate.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("-", 78))
	fmt.Fprintf(w, "  %-14s %-8s %8s %8s %8s  %-15s %7s\n", "REF", "ARTICLE", "CDE", "BL", "DIFF", "STATUT", "TAUX")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, r := range o.Rows {
		fmt.Fprintf(w, "  %-14s %-8s %8d %8s %8s  %-15s %6s%%\n",
			r.ProductID, r.ArticleCode, r.OrderedQty, r.DeliveredQty.String(), r.Diff.String(),
			r.Status, r.ServiceRate.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 78))
}

// PrintHistory lists the runs of a session.
func PrintHistory(w io.Writer, h *app.HistoryResult) {
	fmt.Fprintln(w)
	if len(h.Runs) == 0 {
		fmt.Fprintln(w, "  No run yet.")
		return
	}
	fmt.Fprintf(w, "  %-36s %-16s %7s %8s %5s\n", "RUN", "DATE", "ORDERS", "TAUX", "WARN")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, r := range h.Runs {
		fmt.Fprintf(w, "  %-36s %-16s %7d %7s%% %5d\n",
			r.ID, r.CreatedAt.Format("02/01/2006 15:04"), r.Orders, r.ServiceRate.StringFixed(2), r.Warnings)
	}
}

// PrintDESADV writes the verdict of a DESADV check, portal by portal.
func PrintDESADV(w io.Writer, rep *desadv.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 78))
	fmt.Fprintf(w, "  DESADV pour le %s (seuil %s)\n", rep.Day.Format(desadv.DateLayout), rep.Threshold.String())
	fmt.Fprintln(w, strings.Repeat("=", 78))
	for _, p := range rep.Portals {
		switch p.Outcome {
		case desadv.OutcomeFetchFailed:
			fmt.Fprintf(w, "  %-24s ERREUR: %s\n", p.Name, p.Error)
		case desadv.OutcomeNothingDue:
			fmt.Fprintf(w, "  %-24s rien à envoyer\n", p.Name)
		default:
			fmt.Fprintf(w, "  %-24s DESADV à envoyer\n", p.Name)
			for _, g := range p.Groups {
				fmt.Fprintf(w, "    %-20s %10s  %s\n", g.Warehouse, g.Total.StringFixed(2), strings.Join(g.Orders, ", "))
			}
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 78))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Commands:
  /orders <file.pdf> [...]       stage purchase order PDFs
  /deliveries <file.pdf> [...]   stage delivery note PDFs
  /run [all]                     compare staged files ("all" keeps orders with nothing delivered)
  /history                       list runs of this session
  /show <order>                  reconciled lines of one order of the latest run
  /export <path.xlsx>            write the latest run as an Excel workbook
  /desadv [dd/mm/yyyy]           check the EDI portals (default: tomorrow)
  /reset                         forget staged files, runs and DESADV results
  /help                          this list
  /exit                          quit`)
}
