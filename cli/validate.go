package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/registry"

	"github.com/flowcore-dev/flowcore/loader"
)

// NewValidateCmd creates the "validate" subcommand.
func NewValidateCmd(reg *registry.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a graph definition without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, reg, args[0])
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, reg *registry.Registry, path string) error {
	out := cmd.OutOrStdout()

	def, err := loader.LoadGraphDefinition(path, reg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", path)
		}
		if errors.Is(err, flowcore.ErrUnknownType) {
			fmt.Fprintln(out, err.Error())
			return exitError(exitUnknownType, "validation failed")
		}
		return exitError(exitValidation, "%v", err)
	}

	if _, err := reg.BuildGraphFromDefinition(def); err != nil {
		fmt.Fprintln(out, err.Error())
		return exitError(exitValidation, "validation failed")
	}

	fmt.Fprintf(out, "Valid! %d node(s), %d edge(s)\n", len(def.Nodes), len(def.Edges))
	return nil
}
