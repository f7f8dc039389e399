package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/cli"
	"github.com/example/formbuilder/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "formbuilder",
		Short:   "Edit multi-step form definitions stored in a content repository",
		Version: version.String(),
		Long: `formbuilder lists, creates and edits multi-step forms kept as node trees in a
content repository, either a local sqlite database or a remote GraphQL endpoint.`,
		SilenceUsage: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.TypesCmd())

	// Editing
	rootCmd.AddCommand(cli.FormCmd())
	rootCmd.AddCommand(cli.StepCmd())
	rootCmd.AddCommand(cli.FieldCmd())

	// API
	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
