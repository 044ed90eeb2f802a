package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"MomentumPull/internal/di"
	"MomentumPull/internal/domain/models"

	"github.com/spf13/cobra"
)

var (
	dashboardFormat string
	dashboardHours  int
)

// dashboardCmd computes the analytics once from the store and prints them.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print rankings, bands, crossovers and the regime series",
	Long: `Read the snapshot store and print the current analytics without
fetching anything from the provider.

Example usage:
  momentumpull dashboard                  # Table output
  momentumpull dashboard --format=json    # JSON output
  momentumpull dashboard --hours=12       # Longer regime series`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardFormat, "format", "table", "Output format: table, json")
	dashboardCmd.Flags().IntVar(&dashboardHours, "hours", 6, "Hours of average momentum to print")
}

type dashboardOutput struct {
	Dashboard *models.Dashboard     `json:"dashboard"`
	Series    models.MomentumSeries `json:"series"`
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	uc, cleanup, err := di.InitializeDashboard(cfg)
	if err != nil {
		return fmt.Errorf("dashboard initialization failed: %w", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	out := dashboardOutput{
		Dashboard: uc.Refresh(ctx),
		Series:    uc.Series(ctx, nil, dashboardHours),
	}

	switch dashboardFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "table":
		printDashboard(os.Stdout, out)
		return nil
	default:
		return fmt.Errorf("unknown format %q", dashboardFormat)
	}
}

func printDashboard(w io.Writer, out dashboardOutput) {
	d := out.Dashboard
	fmt.Fprintf(w, "Latest cycle: %s  records in window: %d  average momentum: %.2f",
		d.LatestCycle.Format("2006-01-02 15:04:05"), d.WindowRecords, d.AverageMomentum)
	if d.Stale {
		fmt.Fprint(w, "  (stale)")
	}
	fmt.Fprintln(w)

	printRanked(w, "Top (long)", d.Rankings.Long, d.Rankings.AvgChangeLong)
	printRanked(w, "Bottom (short)", d.Rankings.Short, d.Rankings.AvgChangeShort)
	printRanked(w, "Positive band", d.Bands.Positive, 0)
	printRanked(w, "Negative band", d.Bands.Negative, 0)

	fmt.Fprintf(w, "\nCrossovers around %.2f\n", d.Crossovers.AverageMomentum)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIR\tSYMBOL\tPREV\tSCORE")
	for _, c := range d.Crossovers.Up {
		fmt.Fprintf(tw, "up\t%s\t%.2f\t%.2f\n", c.Symbol, c.PreviousScore, c.MomentumScore)
	}
	for _, c := range d.Crossovers.Down {
		fmt.Fprintf(tw, "down\t%s\t%.2f\t%.2f\n", c.Symbol, c.PreviousScore, c.MomentumScore)
	}
	_ = tw.Flush()

	fmt.Fprintln(w, "\nAverage momentum")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tAVERAGE\tREGIME")
	for _, p := range out.Series.Average {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", p.Timestamp.Format("15:04:05"), p.Value, p.Regime)
	}
	_ = tw.Flush()
}

func printRanked(w io.Writer, title string, rows []models.RankedScore, avgChange float64) {
	fmt.Fprintf(w, "\n%s (%d)", title, len(rows))
	if avgChange != 0 {
		fmt.Fprintf(w, "  avg change: %.2f", avgChange)
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSCORE\tPREV\tCHANGE")
	for _, r := range rows {
		prev := "-"
		if r.PreviousScore != nil {
			prev = fmt.Sprintf("%.2f", *r.PreviousScore)
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.2f\n", r.Symbol, r.MomentumScore, prev, r.Change)
	}
	_ = tw.Flush()
}
