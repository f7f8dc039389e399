package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/core/form"
)

// StepCmd returns the step command
func StepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Edit the steps of a form",
	}

	cmd.AddCommand(stepAddCmd())
	cmd.AddCommand(stepUpdateCmd())
	cmd.AddCommand(stepRemoveCmd())
	cmd.AddCommand(stepReorderCmd())

	return cmd
}

func stepAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [form]",
		Short: "Append an empty step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			_, err = c.EditorAdapter(cmd.OutOrStdout()).AddStep(ctx, args[0])
			return err
		},
	}
}

func stepUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [form] [step-id]",
		Short: "Rename or relabel a step",
		Long: `Update a step's node name, label or description.

Examples:
  formbuilder step update seed-form-contact seed-step-about --label "About you"
  formbuilder step update seed-form-contact seed-step-about --name about --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			patch := form.StepPatch{
				Name:        optionalString(cmd, "name"),
				Label:       optionalString(cmd, "label"),
				Description: optionalString(cmd, "description"),
			}
			return c.EditorAdapter(cmd.OutOrStdout()).UpdateStep(ctx, args[0], args[1], patch, dryRun)
		},
	}
	cmd.Flags().String("name", "", "New node name")
	cmd.Flags().String("label", "", "New label")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().Bool("dry-run", false, "Show the edited form without saving")
	return cmd
}

func stepRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [form] [step-id]",
		Short: "Delete a step and its fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			return c.EditorAdapter(cmd.OutOrStdout()).RemoveStep(ctx, args[0], args[1])
		},
	}
}

func stepReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder [form] [step-id...]",
		Short: "Put the steps in a new order",
		Long:  `Every step of the form must be listed exactly once.`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			return c.EditorAdapter(cmd.OutOrStdout()).ReorderSteps(ctx, args[0], splitIDs(args[1:]))
		},
	}
}
