package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boudmaker/oclock/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			s := a.tracker.Settings()
			fmt.Printf("Hourly rate: €%.2f\n", s.HourlyRate)
			fmt.Printf("Name:        %s\n", s.UserName)
			email := s.UserEmail
			if email == "" {
				email = ui.RenderMuted("(not set)")
			}
			fmt.Printf("Email:       %s\n", email)
			return nil
		})
	},
}

var configSetRateCmd = &cobra.Command{
	Use:   "set-rate <rate>",
	Short: "Set the hourly rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid rate %q", args[0])
		}
		return withApp(func(a *app) error {
			if err := a.tracker.SetHourlyRate(rate); err != nil {
				return err
			}
			fmt.Printf("%s Hourly rate set to €%.2f\n", ui.RenderPass("✓"), rate)
			return nil
		})
	},
}

var configSetNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Set the display name used in reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			a.tracker.SetUserName(args[0])
			fmt.Printf("%s Name set to %s\n", ui.RenderPass("✓"), args[0])
			return nil
		})
	},
}

var configSetEmailCmd = &cobra.Command{
	Use:   "set-email <address>",
	Short: "Set the report recipient address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			a.tracker.SetUserEmail(args[0])
			fmt.Printf("%s Email set to %s\n", ui.RenderPass("✓"), args[0])
			return nil
		})
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetRateCmd)
	configCmd.AddCommand(configSetNameCmd)
	configCmd.AddCommand(configSetEmailCmd)
	rootCmd.AddCommand(configCmd)
}
