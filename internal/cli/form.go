package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/core/form"
)

// FormCmd returns the form command
func FormCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Manage form definitions",
		Long:  `List, create, inspect and edit the multi-step forms stored in the content repository.`,
	}

	cmd.AddCommand(formListCmd())
	cmd.AddCommand(formCreateCmd())
	cmd.AddCommand(formShowCmd())
	cmd.AddCommand(formUpdateCmd())
	cmd.AddCommand(formDuplicateCmd())
	cmd.AddCommand(formDeleteCmd())
	cmd.AddCommand(formHistoryCmd())
	cmd.AddCommand(formLanguagesCmd())

	return cmd
}

func formListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			_, err = c.FormAdapter(cmd.OutOrStdout()).List(ctx)
			return err
		},
	}
}

func formCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create an empty form",
		Long: `Create an empty form under the configured forms path. The node name is
derived from the title and made unique among existing forms.

Examples:
  formbuilder form create "Contact us"
  formbuilder form create "Job application" --intro "Tell us about yourself"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			intro, _ := cmd.Flags().GetString("intro")
			_, err = c.FormAdapter(cmd.OutOrStdout()).Create(ctx, args[0], intro)
			return err
		},
	}
	cmd.Flags().String("intro", "", "Introduction shown above the first step")
	return cmd
}

func formShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [form-id-or-path]",
		Short: "Show a form with its steps and fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			_, err = c.EditorAdapter(cmd.OutOrStdout()).Show(ctx, args[0])
			return err
		},
	}
}

func formUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [form-id-or-path]",
		Short: "Update the form title or intro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			patch := form.FormPatch{
				Label: optionalString(cmd, "title"),
				Intro: optionalString(cmd, "intro"),
			}
			return c.EditorAdapter(cmd.OutOrStdout()).UpdateForm(ctx, args[0], patch, dryRun)
		},
	}
	cmd.Flags().StringP("title", "t", "", "New form title")
	cmd.Flags().String("intro", "", "New introduction")
	cmd.Flags().Bool("dry-run", false, "Show the edited form without saving")
	return cmd
}

func formDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate [form-id-or-path]",
		Short: "Create an empty form titled after an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			_, err = c.FormAdapter(cmd.OutOrStdout()).Duplicate(ctx, args[0])
			return err
		},
	}
}

func formDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [form-id-or-path]",
		Short: "Delete a form and all of its steps and fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			return c.FormAdapter(cmd.OutOrStdout()).Delete(ctx, args[0])
		},
	}
}

func formHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [form-id-or-path]",
		Short: "Show recent writes below a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			_, err = c.FormAdapter(cmd.OutOrStdout()).History(ctx, args[0], limit)
			return err
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of entries")
	return cmd
}

func formLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages [form-id-or-path]",
		Short: "List the languages of the form's site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			_, err = c.EditorAdapter(cmd.OutOrStdout()).Languages(ctx, args[0])
			return err
		},
	}
}
