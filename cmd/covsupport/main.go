package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pbaille/covsupport/internal/config"
	"github.com/pbaille/covsupport/internal/logger"
	"github.com/pbaille/covsupport/internal/store"
)

// app holds the persistent flags shared by every subcommand.
type app struct {
	configPath string
	dbPath     string
	logLevel   string
	logPretty  bool

	cfg *config.Config
	log zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "covsupport",
		Short:         "Lineage pages and workflow support for pangolin",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "catalog database path")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&a.logPretty, "log-pretty", false, "human readable logs")

	rootCmd.AddCommand(a.pagesCmd())
	rootCmd.AddCommand(a.runCmd())
	rootCmd.AddCommand(a.checkCmd())
	rootCmd.AddCommand(a.catalogCmd())
	rootCmd.AddCommand(a.serveCmd())

	return rootCmd
}

// setup loads the configuration and applies flags over it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, os.Getenv)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Catalog.Path = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty = a.logPretty
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func (a *app) getStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(a.cfg.Catalog.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(a.cfg.Catalog.Path)
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
