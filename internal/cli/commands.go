package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ibis-route-manager/internal/db"
	"ibis-route-manager/internal/migrate"
)

func (c *CLI) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the route database up to the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := db.Open(&c.cfg.Database, c.log)
			if err != nil {
				return err
			}
			if sqlDB, err := gormDB.DB(); err == nil {
				defer sqlDB.Close()
			}

			runner, err := migrate.NewRunner(gormDB, c.log, migrate.Steps()...)
			if err != nil {
				return err
			}
			if err := runner.Run(cmd.Context()); err != nil {
				return err
			}

			version, err := runner.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all routes as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			routes, err := s.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(routes)
		},
	}
}

func (c *CLI) newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the route list as the controller's data/ tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = c.cfg.Export.DefaultDir
			}
			if out == "" {
				return fmt.Errorf("no output directory: pass --out or set export.default_dir")
			}

			s, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			routes, err := s.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			result, err := c.newExporter().Export(routes, out)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "exported %d routes to %s\n", len(routes), result.Root)
			for _, col := range result.Collisions {
				fmt.Fprintf(w, "warning: %s overwritten (route %s replaced by %s)\n", col.File, col.OverwrittenID, col.WinnerID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: export.default_dir)")
	return cmd
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "routectl %s (%s)\n", Version, GitCommit)
		},
	}
}
