package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boudmaker/oclock/internal/dashboard"
	"github.com/boudmaker/oclock/internal/store/local"
	"github.com/boudmaker/oclock/internal/tracker"
	"github.com/boudmaker/oclock/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live dashboard daemon",
	Long: `Run oclock as a daemon with a real-time WebSocket dashboard.

The daemon watches the data directory, so edits made by other oclock
invocations (or by hand) show up live. Connected WebSocket clients
receive:
- timer_tick: the running timer's current snapshot
- session_update / todo_update / settings_update: collection changes
- stats: aggregate hours and earnings
- notice: transient notifications

On shutdown a running timer is finalized to local storage before the
process exits.

Example usage:
  oclock serve
  oclock serve --port 9000

Connect with a WebSocket client:
  ws://localhost:8484/ws`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = viper.GetInt("dashboard_port")
		}

		logger := newLogger("[serve] ")

		store, err := local.Open(viper.GetString("data_dir"))
		if err != nil {
			return fmt.Errorf("opening data directory: %w", err)
		}
		provider := openAuth(store, logger)
		db := openRemote(logger)
		if db != nil {
			defer db.Close()
		}

		server := dashboard.NewServer(&dashboard.Config{Port: port, Logger: logger})
		if err := server.Start(); err != nil {
			return fmt.Errorf("starting dashboard: %w", err)
		}
		handler := dashboard.NewHandler(server, logger)

		tr, err := tracker.New(tracker.Config{
			Local:  store,
			Remote: db,
			Auth:   provider,
			Logger: logger,
			Notify: func(n tracker.Notification) {
				printNotification(n)
				handler.OnNotification(n)
			},
		})
		if err != nil {
			_ = server.Stop()
			return err
		}
		tr.SetTickFunc(handler.OnTimerTick)

		// Mirror external edits of the local files into the dashboard.
		watcher, err := store.Watch()
		if err != nil {
			logger.Printf("starting watcher: %v", err)
		} else {
			defer watcher.Close()
			go func() {
				for key := range watcher.Events() {
					logger.Printf("local change: %s", key)
					tr.ReloadLocal(key)
					handler.BroadcastStats(tr)
				}
			}()
			go func() {
				for err := range watcher.Errors() {
					logger.Printf("watcher error: %v", err)
				}
			}()
		}

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Health check: http://localhost:%d/health\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		handler.BroadcastStats(tr)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down...")

		// Finalize a running timer synchronously to local storage, then
		// give the remote queues a bounded chance to drain.
		if s, err := tr.FinalizeActive(); err == nil && s != nil {
			fmt.Printf("%s Finalized running session: %s\n", ui.RenderPass("✓"), ui.RenderAccent(fmt.Sprintf("€%.2f", s.Earnings)))
		}
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := tr.Flush(flushCtx); err != nil {
			logger.Printf("flushing on shutdown: %v", err)
		}
		flushCancel()
		_ = tr.Close()

		if err := server.Stop(); err != nil {
			return fmt.Errorf("stopping dashboard: %w", err)
		}
		fmt.Println("Stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8484, "Dashboard port to listen on")
	rootCmd.AddCommand(serveCmd)
}
