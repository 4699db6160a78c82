package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/boudmaker/oclock/internal/report"
	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate work reports",
	Long: `Generate reports over recorded sessions.

The --since flag accepts natural language, e.g. "last monday",
"3 days ago", or "1 march".

Example usage:
  oclock report stats
  oclock report email
  oclock report pdf --out invoices.pdf
  oclock report stats --since "last monday"`,
}

// parseSince resolves the --since flag to a cutoff time, accepting
// natural language dates.
func parseSince(expr string) (time.Time, error) {
	if expr == "" {
		return time.Time{}, nil
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(expr, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --since %q: %w", expr, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --since %q", expr)
	}
	return r.Time, nil
}

func reportSessions(a *app, since string) ([]schema.WorkSession, error) {
	cutoff, err := parseSince(since)
	if err != nil {
		return nil, err
	}
	return report.Since(a.tracker.Sessions(), cutoff), nil
}

var reportStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-day hours and earnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")
		days, _ := cmd.Flags().GetInt("days")
		return withApp(func(a *app) error {
			sessions, err := reportSessions(a, since)
			if err != nil {
				return err
			}
			stats := report.DailyStats(sessions, days)
			if len(stats) == 0 {
				fmt.Println(ui.RenderMuted("No data yet. Start tracking to see your stats!"))
				return nil
			}

			fmt.Println(ui.RenderTitle("Working Hours"))
			for _, day := range stats {
				bar := strings.Repeat("█", barWidth(day.Hours))
				fmt.Printf("%s  %5.2f h  %s  %s\n",
					day.Label, day.Hours, ui.RenderAccent(fmt.Sprintf("€%7.2f", day.Earnings)), bar)
			}

			summary := report.Summarize(sessions)
			fmt.Printf("\nTotal: %s over %d sessions, %s (avg %.1fh/day)\n",
				report.FormatDuration(summary.TotalTime),
				summary.SessionCount,
				ui.RenderAccent(fmt.Sprintf("€%.2f", summary.TotalEarnings)),
				summary.AvgDailyHours)
			return nil
		})
	},
}

// barWidth scales hours to a terminal bar, capped at 40 cells.
func barWidth(hours float64) int {
	w := int(hours * 4)
	if w > 40 {
		w = 40
	}
	if w < 0 {
		w = 0
	}
	return w
}

var reportEmailCmd = &cobra.Command{
	Use:   "email",
	Short: "Print the report email and its mailto link",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")
		return withApp(func(a *app) error {
			sessions, err := reportSessions(a, since)
			if err != nil {
				return err
			}
			settings := a.tracker.Settings()
			if settings.UserEmail == "" {
				fmt.Printf("%s No email configured; set one with 'oclock config set-email'\n", ui.RenderWarn("⚠"))
			}
			fmt.Println(report.EmailBody(sessions, settings))
			fmt.Printf("\n%s\n", ui.RenderMuted(report.MailtoLink(sessions, settings)))
			return nil
		})
	},
}

var reportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Export the report as a PDF file",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")
		out, _ := cmd.Flags().GetString("out")
		return withApp(func(a *app) error {
			sessions, err := reportSessions(a, since)
			if err != nil {
				return err
			}
			if out == "" {
				out = report.DefaultPDFName(time.Now())
			}
			if err := report.WritePDF(out, sessions, a.tracker.Settings()); err != nil {
				return fmt.Errorf("writing PDF: %w", err)
			}
			fmt.Printf("%s Exported %s\n", ui.RenderPass("✓"), out)
			return nil
		})
	},
}

func init() {
	reportCmd.PersistentFlags().String("since", "", "Only include sessions starting after this time (natural language)")
	reportStatsCmd.Flags().Int("days", report.DefaultStatDays, "Number of trailing days to show")
	reportPDFCmd.Flags().String("out", "", "Output file (default time-tracker-report-<date>.pdf)")

	reportCmd.AddCommand(reportStatsCmd)
	reportCmd.AddCommand(reportEmailCmd)
	reportCmd.AddCommand(reportPDFCmd)
	rootCmd.AddCommand(reportCmd)
}
