package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowcore-dev/flowcore/cli"
	"github.com/flowcore-dev/flowcore/nodes"
	"github.com/flowcore-dev/flowcore/registry"
	"github.com/flowcore-dev/flowcore/store"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "flowcorectl",
	Short:        "flowcore graph execution CLI",
	Long:         "flowcorectl — validate, run, and introspect flowcore graph definitions.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("store-path", "", "Not read; the sqlite store backing message_persistence is opened from FLOWCORE_SQLITE_PATH (unset: no persistence node registered)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("flowcorectl version %s\n", version))

	cobra.OnInitialize(func() {
		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	})

	reg := registry.NewRegistry()
	reg.SetLogger(slog.Default())

	deps := nodes.Dependencies{
		LLMBaseURL: os.Getenv("FLOWCORE_LLM_BASE_URL"),
		LLMAPIKey:  os.Getenv("FLOWCORE_LLM_API_KEY"),
	}
	if storePath := os.Getenv("FLOWCORE_SQLITE_PATH"); storePath != "" {
		st, err := store.Open(storePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flowcorectl: opening store at %s: %v\n", storePath, err)
			os.Exit(1)
		}
		deps.Store = st
	}

	if err := nodes.RegisterAll(reg, deps); err != nil {
		fmt.Fprintf(os.Stderr, "flowcorectl: registering node types: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(cli.NewRunCmd(reg))
	rootCmd.AddCommand(cli.NewValidateCmd(reg))
	rootCmd.AddCommand(cli.NewRegistryCmd(reg))
}
