package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boudmaker/oclock/internal/ui"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage the todo list",
}

var todoAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withApp(func(a *app) error {
			item, err := a.tracker.AddTodo(text)
			if err != nil {
				return err
			}
			fmt.Printf("%s Added %s %s\n", ui.RenderPass("✓"), item.Text, ui.RenderMuted("("+item.ID+")"))
			return nil
		})
	},
}

var todoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List todos in the order they were added",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			todos := a.tracker.Todos()
			if len(todos) == 0 {
				fmt.Println(ui.RenderMuted("No todos yet"))
				return nil
			}
			for i, item := range todos {
				mark := ui.RenderMuted("[ ]")
				text := item.Text
				if item.Completed {
					mark = ui.RenderPass("[✓]")
					text = ui.RenderMuted(text)
				}
				fmt.Printf("%2d. %s %s %s\n", i+1, mark, text, ui.RenderMuted(item.ID))
			}
			return nil
		})
	},
}

var todoToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a todo between done and not done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if !a.tracker.ToggleTodo(args[0]) {
				fmt.Printf("%s No todo with id %s\n", ui.RenderWarn("⚠"), args[0])
				return nil
			}
			fmt.Printf("%s Toggled %s\n", ui.RenderPass("✓"), args[0])
			return nil
		})
	},
}

var todoDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if !a.tracker.DeleteTodo(args[0]) {
				fmt.Printf("%s No todo with id %s\n", ui.RenderWarn("⚠"), args[0])
				return nil
			}
			fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), args[0])
			return nil
		})
	},
}

func init() {
	todoCmd.AddCommand(todoAddCmd)
	todoCmd.AddCommand(todoListCmd)
	todoCmd.AddCommand(todoToggleCmd)
	todoCmd.AddCommand(todoDeleteCmd)
	rootCmd.AddCommand(todoCmd)
}
