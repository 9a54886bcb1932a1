package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/loader"
	"github.com/flowcore-dev/flowcore/registry"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd(reg *registry.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Build and execute a graph definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, reg, args[0])
		},
	}

	cmd.Flags().String("format", "pretty", "Output format: json | pretty")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Execution timeout; on expiry the graph's cooperative stop flag is requested")
	cmd.Flags().Bool("dry-run", false, "Build the graph and exit without executing it")

	return cmd
}

func runRun(cmd *cobra.Command, reg *registry.Registry, path string) error {
	def, err := loader.LoadGraphDefinition(path, reg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return exitError(exitFileNotFound, "file not found: %s", path)
		}
		return exitError(exitValidation, "%v", err)
	}

	g, err := reg.BuildGraphFromDefinition(def)
	if err != nil {
		return exitError(exitValidation, "building graph: %v", err)
	}
	g.SetLogger(slog.Default())

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Graph built successfully.")
		return nil
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	result := executeWithTimeout(g, timeout)

	return writeRunResult(cmd, result)
}

// executeWithTimeout runs g and, if it hasn't finished by timeout,
// requests the graph's cooperative stop flag. flowcore's scheduler has
// no context.Context parameter to cancel directly (spec.md's stop flag
// is the only cooperative cancellation mechanism event-producer loops
// observe), so this is the CLI's equivalent of a deadline.
func executeWithTimeout(g *flowcore.Graph, timeout time.Duration) *flowcore.ExecutionResult {
	done := make(chan *flowcore.ExecutionResult, 1)
	go func() {
		done <- g.ExecuteAndCaptureResults()
	}()

	select {
	case result := <-done:
		return result
	case <-time.After(timeout):
		g.RequestStop()
		return <-done
	}
}

func writeRunResult(cmd *cobra.Command, result *flowcore.ExecutionResult) error {
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		data, err := json.MarshalIndent(jsonResult(result), "", "  ")
		if err != nil {
			return exitError(exitRuntime, "marshaling result: %v", err)
		}
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintln(out, formatRunResultPretty(result))
	}

	if !result.Success() {
		return exitError(exitRuntime, "execution failed: %s", result.ErrorMessage)
	}
	return nil
}

type jsonNodeResult map[string]any

func jsonResult(result *flowcore.ExecutionResult) map[string]any {
	nodes := make(map[string]jsonNodeResult, len(result.NodeResults))
	for nodeID, values := range result.NodeResults {
		fields := make(jsonNodeResult, len(values))
		for port, value := range values {
			fields[port] = value.ToJSON()
		}
		nodes[nodeID] = fields
	}
	return map[string]any{
		"run_id":        result.RunID,
		"success":       result.Success(),
		"error_node_id": result.ErrorNodeID,
		"error_message": result.ErrorMessage,
		"nodes":         nodes,
	}
}

func formatRunResultPretty(result *flowcore.ExecutionResult) string {
	if !result.Success() {
		return fmt.Sprintf("run %s failed at node %q: %s", result.RunID, result.ErrorNodeID, result.ErrorMessage)
	}
	summary := fmt.Sprintf("run %s succeeded, %d node(s) executed", result.RunID, len(result.NodeResults))
	for nodeID, values := range result.NodeResults {
		for port, value := range values {
			summary += fmt.Sprintf("\n  %s.%s = %v", nodeID, port, value.ToJSON())
		}
	}
	return summary
}
