package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/core/form"
	"github.com/example/formbuilder/internal/ports/primary"
)

// FieldCmd returns the field command
func FieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Edit the fields of a step",
	}

	cmd.AddCommand(fieldAddCmd())
	cmd.AddCommand(fieldAddOptionCmd())
	cmd.AddCommand(fieldUpdateCmd())
	cmd.AddCommand(fieldRemoveCmd())
	cmd.AddCommand(fieldReorderCmd())
	cmd.AddCommand(fieldDuplicateCmd())

	return cmd
}

func fieldAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [form] [step-id] [type]",
		Short: "Add a field of a registered type",
		Long: `Add a field to a step, or inside a group field with --parent.
--set entries are typed by the field type's properties.
Run "formbuilder types" for the available types.

Examples:
  formbuilder field add seed-form-contact seed-step-about inputEmail
  formbuilder field add seed-form-contact seed-step-about inputText --label Company --set required=true
  formbuilder field add seed-form-contact seed-step-message inputRadio --parent seed-field-contact-by --label Post`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			parent, _ := cmd.Flags().GetString("parent")
			label, _ := cmd.Flags().GetString("label")
			entries, _ := cmd.Flags().GetStringArray("set")
			set, err := parseAssignments(entries)
			if err != nil {
				return err
			}

			adapter := c.EditorAdapter(cmd.OutOrStdout())
			if parent == "" && label == "" && len(set) == 0 {
				_, err = adapter.AddField(ctx, args[0], args[1], args[2])
				return err
			}
			req := primary.NestedFieldRequest{
				StepID:        args[1],
				ParentFieldID: parent,
				TypeID:        args[2],
				Label:         label,
			}
			_, err = adapter.AddNestedField(ctx, args[0], req, set)
			return err
		},
	}
	cmd.Flags().String("parent", "", "Group field to add the field into")
	cmd.Flags().String("label", "", "Label of the new field")
	cmd.Flags().StringArray("set", nil, "Property of the new field as key=value (repeatable)")
	return cmd
}

func fieldAddOptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-option [form] [step-id] [field-id]",
		Short: "Add a choice to a select or a member to a radio or checkbox group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			return c.EditorAdapter(cmd.OutOrStdout()).AddOption(ctx, args[0], args[1], args[2])
		},
	}
}

func fieldUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [form] [step-id] [field-id]",
		Short: "Rename, relabel or set properties of a field",
		Long: `Update a field. --set entries are merged over the current properties.
Boolean properties take true or false; list properties take a JSON array or a
comma separated list.

Examples:
  formbuilder field update seed-form-contact seed-step-about seed-field-name --label "Full name"
  formbuilder field update seed-form-contact seed-step-about seed-field-name --set required=true --dry-run`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			entries, _ := cmd.Flags().GetStringArray("set")
			set, err := parseAssignments(entries)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			patch := form.FieldPatch{
				Name:  optionalString(cmd, "name"),
				Label: optionalString(cmd, "label"),
			}
			return c.EditorAdapter(cmd.OutOrStdout()).UpdateField(ctx, args[0], args[1], args[2], patch, set, dryRun)
		},
	}
	cmd.Flags().String("name", "", "New node name")
	cmd.Flags().String("label", "", "New label")
	cmd.Flags().StringArray("set", nil, "Property as key=value (repeatable)")
	cmd.Flags().Bool("dry-run", false, "Show the edited form without saving")
	return cmd
}

func fieldRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [form] [step-id] [field-id]",
		Short: "Delete a field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			return c.EditorAdapter(cmd.OutOrStdout()).RemoveField(ctx, args[0], args[1], args[2])
		},
	}
}

func fieldReorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder [form] [step-id] [field-id...]",
		Short: "Put sibling fields in a new order",
		Long:  `Every sibling must be listed exactly once. Use --parent to reorder the members of a group.`,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			parent, _ := cmd.Flags().GetString("parent")
			req := primary.ReorderFieldsRequest{
				StepID:        args[1],
				ParentFieldID: parent,
				FieldIDs:      splitIDs(args[2:]),
			}
			return c.EditorAdapter(cmd.OutOrStdout()).ReorderFields(ctx, args[0], req)
		},
	}
	cmd.Flags().String("parent", "", "Group field whose members are reordered")
	return cmd
}

func fieldDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate [form] [step-id] [field-id]",
		Short: "Copy a field next to the original",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, err := services(cmd)
			if err != nil {
				return err
			}
			_, err = c.EditorAdapter(cmd.OutOrStdout()).DuplicateField(ctx, args[0], args[1], args[2])
			return err
		},
	}
}
