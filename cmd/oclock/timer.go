package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boudmaker/oclock/internal/report"
	"github.com/boudmaker/oclock/internal/ui"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a timer",
	Long: `Start a new timer. By default the timer counts up until stopped.

With --countdown the timer counts down from the target duration and
stops itself when time is up.

Example usage:
  oclock start
  oclock start --countdown
  oclock start --countdown --for 45m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		countdown, _ := cmd.Flags().GetBool("countdown")
		target, _ := cmd.Flags().GetDuration("for")

		return withApp(func(a *app) error {
			if countdown {
				if err := a.tracker.SetCountdownMode(true); err != nil {
					return err
				}
				if cmd.Flags().Changed("for") {
					if err := a.tracker.SetCountdownTarget(target); err != nil {
						return err
					}
				}
			}
			s, err := a.tracker.StartTimer()
			if err != nil {
				return err
			}
			if countdown {
				fmt.Printf("   Counting down %s (session %s)\n", report.FormatDuration(a.tracker.Timer().Target), ui.RenderMuted(s.ID))
			} else {
				fmt.Printf("   Counting up (session %s)\n", ui.RenderMuted(s.ID))
			}
			return nil
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer and record the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			s, err := a.tracker.StopTimer()
			if err != nil {
				return err
			}
			fmt.Printf("   %s for %s\n", ui.RenderAccent(fmt.Sprintf("€%.2f", s.Earnings)), report.FormatDurationMs(s.Duration))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer, totals, and account status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			snap := a.tracker.Timer()
			if snap.Running {
				if snap.Countdown {
					fmt.Printf("%s Countdown running: %s remaining\n", ui.RenderPass("●"), report.FormatDuration(snap.Remaining))
				} else {
					fmt.Printf("%s Timer running: %s elapsed\n", ui.RenderPass("●"), report.FormatDuration(snap.Elapsed))
				}
				fmt.Printf("   Current earnings: %s\n", ui.RenderAccent(fmt.Sprintf("€%.2f", snap.Earnings)))
			} else {
				fmt.Printf("%s No timer running\n", ui.RenderMuted("○"))
			}

			settings := a.tracker.Settings()
			fmt.Printf("   Rate: €%.2f/hour\n", settings.HourlyRate)
			fmt.Printf("   Total: %s worked, %s earned\n",
				report.FormatDuration(a.tracker.TotalTime()),
				ui.RenderAccent(fmt.Sprintf("€%.2f", a.tracker.TotalEarnings())))

			if principal := a.tracker.Principal(); principal != "" {
				fmt.Printf("   Signed in as %s\n", principal)
			} else {
				fmt.Printf("   %s\n", ui.RenderMuted("Signed out (local data)"))
			}
			return nil
		})
	},
}

var countdownCmd = &cobra.Command{
	Use:   "countdown [+duration|-duration|duration]",
	Short: "Show or adjust the countdown target",
	Long: `Show the countdown target, or adjust it while no timer runs.

A leading + or - shifts the current target; a bare duration replaces it.
The target never goes below zero.

Example usage:
  oclock countdown
  oclock countdown +15m
  oclock countdown -- -30m
  oclock countdown 1h`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if len(args) == 0 {
				fmt.Printf("   Countdown target: %s\n", report.FormatDuration(a.tracker.Timer().Target))
				return nil
			}
			arg := args[0]
			shift := arg[0] == '+' || arg[0] == '-'
			d, err := time.ParseDuration(strings.TrimPrefix(arg, "+"))
			if err != nil {
				return fmt.Errorf("parsing duration %q: %w", arg, err)
			}
			var target time.Duration
			if shift {
				target, err = a.tracker.AdjustCountdown(d)
			} else {
				err = a.tracker.SetCountdownTarget(d)
				target = d
			}
			if err != nil {
				return err
			}
			fmt.Printf("   Countdown target: %s\n", report.FormatDuration(target))
			return nil
		})
	},
}

func init() {
	startCmd.Flags().Bool("countdown", false, "Count down instead of up")
	startCmd.Flags().Duration("for", 30*time.Minute, "Countdown target duration")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(countdownCmd)
}
