package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flowcore-dev/flowcore/registry"
)

// NewRegistryCmd creates the "registry" subcommand, which lists the node
// types available to run/validate in this build of flowcorectl.
func NewRegistryCmd(reg *registry.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "List registered node types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegistry(cmd, reg)
		},
	}
	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().String("category", "", "Only list node types in this category")
	return cmd
}

func runRegistry(cmd *cobra.Command, reg *registry.Registry) error {
	category, _ := cmd.Flags().GetString("category")
	format, _ := cmd.Flags().GetString("format")

	types := reg.GetAllTypes()
	if category != "" {
		types = reg.GetTypesByCategory(category)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(types)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tNAME\tCATEGORY\tKIND")
	for _, t := range types {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TypeID, t.Name, t.Category, t.Kind)
	}
	return w.Flush()
}
