package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/db"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing API over HTTP",
		Long: `Serve form editing sessions and the form catalog as a JSON API.
Sessions expire after 30 minutes of inactivity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			addr, _ := cmd.Flags().GetString("listen")
			if addr == "" {
				addr = c.Config().Listen
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			sessions := c.SessionManager()
			go sessions.RunCleanup(ctx, time.Minute)

			return c.HTTPServer(sessions).Run(ctx, addr)
		},
	}
	cmd.Flags().String("listen", "", "Address to listen on (default from config)")
	return cmd
}

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a sample site and contact form into the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := services(cmd)
			if err != nil {
				return err
			}
			if c.Config().Repository.Backend != config.BackendSQLite {
				return fmt.Errorf("seed only works with the %s backend", config.BackendSQLite)
			}
			if err := db.SeedFixtures(c.Database()); err != nil {
				return fmt.Errorf("failed to seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Sample form loaded: %s\n", db.SampleFormID)
			fmt.Fprintf(cmd.OutOrStdout(), "  Try: formbuilder form show %s\n", db.SampleFormID)
			return nil
		},
	}
}

// TypesCmd returns the types command
func TypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the field types forms can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := services(cmd)
			if err != nil {
				return err
			}
			c.FormAdapter(cmd.OutOrStdout()).Types(c.Registry())
			return nil
		},
	}
}
