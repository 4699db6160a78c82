package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/boudmaker/oclock/internal/auth"
	"github.com/boudmaker/oclock/internal/store/local"
	"github.com/boudmaker/oclock/internal/store/remote"
	"github.com/boudmaker/oclock/internal/tracker"
	"github.com/boudmaker/oclock/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "oclock",
	Short: "Freelance time tracking and invoicing from the terminal",
	Long: `oclock tracks working time, todos, and earnings for freelancers.

Sessions and todos are stored locally as JSON by default. After logging
in, state lives in an owner-scoped SQLite database instead, so several
machines can share one ledger.

Common commands:
  oclock start                 Start a count-up timer
  oclock start --countdown     Start a countdown timer
  oclock stop                  Stop the timer and record earnings
  oclock status                Show the timer and totals
  oclock add 90                Record 90 minutes of manual work
  oclock report stats          Show per-day hours and earnings`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfigDir string
	flagVerbose   bool
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Config and data directory (default ~/.oclock)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging to stderr")
}

// configDir resolves the directory holding config, data, and logs.
func configDir() string {
	if flagConfigDir != "" {
		return flagConfigDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oclock"
	}
	return filepath.Join(home, ".oclock")
}

func initConfig() {
	dir := configDir()
	viper.SetConfigName("oclock")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	viper.SetEnvPrefix("OCLOCK")
	viper.AutomaticEnv()

	viper.SetDefault("data_dir", filepath.Join(dir, "data"))
	viper.SetDefault("remote_db", "")
	viper.SetDefault("auth_secret", "")
	viper.SetDefault("dashboard_port", 8484)
	viper.SetDefault("log_file", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
	}
}

// newLogger builds the shared logger. With a configured log file it
// writes through lumberjack rotation; otherwise it logs to stderr only
// when --verbose is set.
func newLogger(prefix string) *log.Logger {
	var out io.Writer = io.Discard
	if logFile := viper.GetString("log_file"); logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	} else if flagVerbose {
		out = os.Stderr
	}
	return log.New(out, prefix, log.LstdFlags)
}

// printNotification renders tracker notifications for the terminal.
func printNotification(n tracker.Notification) {
	switch n.Level {
	case tracker.LevelError:
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderError("✗"), n.Message)
	default:
		fmt.Printf("%s %s\n", ui.RenderPass("✓"), n.Message)
	}
}

// openAuth builds the identity provider and restores a stored token.
func openAuth(store *local.Store, logger *log.Logger) *auth.Provider {
	secret := viper.GetString("auth_secret")
	if secret == "" {
		return nil
	}
	provider := auth.New([]byte(secret), logger)
	var token string
	if ok, _ := store.Get(local.KeyAuthToken, &token); ok && token != "" {
		if _, err := provider.SignIn(token); err != nil {
			logger.Printf("stored token rejected: %v", err)
			_ = store.Delete(local.KeyAuthToken)
		}
	}
	return provider
}

// openRemote opens the shared SQLite database when one is configured.
func openRemote(logger *log.Logger) *remote.DB {
	path := viper.GetString("remote_db")
	if path == "" {
		return nil
	}
	db, err := remote.Open(path)
	if err != nil {
		logger.Printf("opening remote database: %v", err)
		fmt.Fprintf(os.Stderr, "%s Remote database unavailable, running local-only\n", ui.RenderWarn("⚠"))
		return nil
	}
	if err := db.InitSchema(); err != nil {
		logger.Printf("initializing remote schema: %v", err)
		db.Close()
		return nil
	}
	return db
}

type app struct {
	store   *local.Store
	db      *remote.DB
	auth    *auth.Provider
	tracker *tracker.Tracker
	logger  *log.Logger
}

// openApp wires the full stack for one CLI invocation.
func openApp(quiet bool) (*app, error) {
	logger := newLogger("[oclock] ")
	store, err := local.Open(viper.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}
	provider := openAuth(store, logger)
	db := openRemote(logger)

	notify := printNotification
	if quiet {
		notify = nil
	}
	tr, err := tracker.New(tracker.Config{
		Local:  store,
		Remote: db,
		Auth:   provider,
		Logger: logger,
		Notify: notify,
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	return &app{store: store, db: db, auth: provider, tracker: tr, logger: logger}, nil
}

// close flushes pending remote writes and releases resources. A running
// timer stays recorded for the next invocation.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.tracker.Flush(ctx); err != nil {
		a.logger.Printf("flushing remote writes: %v", err)
		fmt.Fprintf(os.Stderr, "%s Some changes may not have reached the shared database\n", ui.RenderWarn("⚠"))
	}
	_ = a.tracker.Close()
	if a.db != nil {
		_ = a.db.Close()
	}
}

// withApp runs one command against a fully wired tracker.
func withApp(fn func(a *app) error) error {
	a, err := openApp(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer a.close()
	if err := fn(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
