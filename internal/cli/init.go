package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file and initialize the local database",
		Long: `Write .formbuilder/config.yaml in the current directory and create the local
sqlite database that holds content (sqlite backend) and the change log.

Examples:
  formbuilder init
  formbuilder init --backend graphql --endpoint https://cms.example.com/modules/graphql --token $TOKEN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.Repository.Backend, _ = cmd.Flags().GetString("backend")
			cfg.Repository.Endpoint, _ = cmd.Flags().GetString("endpoint")
			cfg.Repository.Token, _ = cmd.Flags().GetString("token")
			cfg.Repository.Path, _ = cmd.Flags().GetString("db")
			cfg.Session.SiteKey, _ = cmd.Flags().GetString("site")

			if err := config.SaveConfig(".", cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration written to .formbuilder/config.yaml")

			loaded, err := config.LoadConfig(".")
			if err != nil {
				return err
			}
			dbPath := loaded.Repository.Path
			if dbPath == "" {
				if dbPath, err = config.DefaultDatabasePath(); err != nil {
					return err
				}
			}
			database, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer database.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Database initialized at %s\n", dbPath)
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Next steps:")
			fmt.Fprintln(cmd.OutOrStdout(), "  formbuilder seed")
			fmt.Fprintln(cmd.OutOrStdout(), "  formbuilder form list")
			return nil
		},
	}
	cmd.Flags().String("backend", config.BackendSQLite, "Content backend (sqlite or graphql)")
	cmd.Flags().String("endpoint", "", "GraphQL endpoint URL")
	cmd.Flags().String("token", "", "GraphQL bearer token")
	cmd.Flags().String("db", "", "Local database file (default ~/.formbuilder/content.db)")
	cmd.Flags().String("site", "", "Site key the forms live under")
	return cmd
}
