package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boudmaker/oclock/internal/report"
	"github.com/boudmaker/oclock/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add <minutes>",
	Short: "Record manual work time",
	Long: `Record a completed session of the given number of minutes, ending
now, earning at the current hourly rate.

Example usage:
  oclock add 90`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid minutes %q", args[0])
		}
		return withApp(func(a *app) error {
			_, err := a.tracker.AddManual(minutes)
			return err
		})
	},
}

var subtractCmd = &cobra.Command{
	Use:   "subtract <minutes>",
	Short: "Deduct over-counted work time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid minutes %q", args[0])
		}
		return withApp(func(a *app) error {
			_, err := a.tracker.SubtractManual(minutes)
			return err
		})
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage recorded work sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			sessions := a.tracker.Sessions()
			if len(sessions) == 0 {
				fmt.Println(ui.RenderMuted("No sessions recorded"))
				return nil
			}
			for i, s := range sessions {
				duration := report.FormatDurationMs(s.Duration)
				if s.IsManual {
					duration = "Manual Entry"
				}
				when := report.FormatTimestamp(s.StartTime)
				if !s.Finalized() {
					fmt.Printf("%2d. %s %s %s\n", i+1, ui.RenderPass("●"), s.TaskName, ui.RenderMuted(s.ID))
					continue
				}
				fmt.Printf("%2d. %s - %s - %s %s %s\n",
					i+1, s.TaskName, duration,
					ui.RenderAccent(fmt.Sprintf("€%.2f", s.Earnings)),
					ui.RenderMuted(when), ui.RenderMuted(s.ID))
			}
			return nil
		})
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a session's task",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args[1:], " ")
		return withApp(func(a *app) error {
			if !a.tracker.RenameTask(args[0], name) {
				fmt.Printf("%s No session with id %s\n", ui.RenderWarn("⚠"), args[0])
				return nil
			}
			fmt.Printf("%s Renamed\n", ui.RenderPass("✓"))
			return nil
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if !a.tracker.DeleteSession(args[0]) {
				fmt.Printf("%s No session with id %s\n", ui.RenderWarn("⚠"), args[0])
				return nil
			}
			fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), args[0])
			return nil
		})
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to clear all sessions without --yes")
		}
		return withApp(func(a *app) error {
			if err := a.tracker.ClearSessions(); err != nil {
				return err
			}
			fmt.Printf("%s All sessions cleared\n", ui.RenderPass("✓"))
			return nil
		})
	},
}

func init() {
	sessionsClearCmd.Flags().Bool("yes", false, "Confirm clearing all sessions")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(subtractCmd)
	rootCmd.AddCommand(sessionsCmd)
}
