// Package cli provides the routectl command line: it opens the route
// database, runs migrations, and serves or exports the route list.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ibis-route-manager/config"
	"ibis-route-manager/internal/db"
	"ibis-route-manager/internal/export"
	"ibis-route-manager/internal/logging"
	"ibis-route-manager/internal/store"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config
	log     *logrus.Logger

	// Global flags
	configPath string
	debug      bool
}

// New creates a new CLI instance.
func New() *CLI {
	c := &CLI{}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI and returns the process exit code.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "routectl: %v\n", err)
		return ExitFailure
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routectl",
		Short: "Maintain IBIS/ALFA routes and export them for the ESP32 controller",
		Long: `routectl keeps the bus and tram route list in a local database and
writes it as the data/ tree the ESP32 display controller loads from flash.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $CONFIG_PATH or built-in defaults)")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "verbose debug logs")

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newMigrateCmd())
	cmd.AddCommand(c.newListCmd())
	cmd.AddCommand(c.newExportCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.debug {
		cfg.Log.Level = "debug"
	}
	c.cfg = cfg

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	c.log = log
	return nil
}

// openStore opens the database and brings the schema up to date. A migration
// failure is fatal for every command.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	gormDB, err := db.Open(&c.cfg.Database, c.log)
	if err != nil {
		return nil, err
	}

	s := store.NewGormStore(gormDB, c.log)
	if err := s.Initialize(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize route store: %w", err)
	}
	return s, nil
}

func (c *CLI) newExporter() *export.Exporter {
	return export.New(export.Options{
		WriteIndex: c.cfg.Export.IndexEnabled(),
		SignDir:    c.cfg.Export.SignDir,
	}, c.log)
}
