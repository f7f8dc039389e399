package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/formbuilder/internal/config"
	"github.com/example/formbuilder/internal/ctxutil"
	"github.com/example/formbuilder/internal/wire"
)

// BindGlobalFlags adds the persistent session flags to root and applies them to
// the configuration before any service is built.
func BindGlobalFlags(root *cobra.Command) {
	var workspace, language, site string
	root.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace to edit (EDIT or LIVE)")
	root.PersistentFlags().StringVarP(&language, "language", "l", "", "Editing language (default from config, else en)")
	root.PersistentFlags().StringVar(&site, "site", "", "Site key the forms live under")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		wire.Configure(func(cfg *config.Config) {
			applyFlags(cfg, workspace, language, site)
		})
	}
}

func applyFlags(cfg *config.Config, workspace, language, site string) {
	if workspace != "" {
		cfg.Session.Workspace = workspace
	}
	if language != "" {
		cfg.Session.Language = language
	}
	if site != "" {
		cfg.Session.SiteKey = site
		cfg.Session.FormsPath = ""
	}
}

// services returns the configured container and a context naming the local editor.
func services(cmd *cobra.Command) (*wire.Container, context.Context, error) {
	c, err := wire.Default()
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return c, ctxutil.WithEditor(ctx, ctxutil.LocalEditor()), nil
}

// parseAssignments turns key=value flag entries into a map.
func parseAssignments(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q: expected key=value", entry)
		}
		out[key] = value
	}
	return out, nil
}

// splitIDs accepts ids as separate arguments or comma-separated.
func splitIDs(args []string) []string {
	var ids []string
	for _, arg := range args {
		for _, id := range strings.Split(arg, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// optionalString returns a pointer to the flag value when the flag was given.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
