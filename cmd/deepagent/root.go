// Package main implements the deepagent CLI: a thin cobra frontend over
// the agent package, grounded on the teacher's cmd/vc (each subcommand a
// package-level *cobra.Command registered onto rootCmd from its own
// init()) and internal/repl (the interactive shell).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigFile     string
	flagModel          string
	flagSystemPrompt   string
	flagMaxSteps       int
	flagBackend        string
	flagBackendDir     string
	flagCheckpoint     string
	flagCheckpointPath string
	flagInterruptAll   bool
	flagControlSocket  string
)

var rootCmd = &cobra.Command{
	Use:   "deepagent",
	Short: "A tool-calling agent harness with checkpointing and human approval",
	Long: `deepagent drives a model through a bounded tool-calling loop against a
virtual filesystem backend, checkpointing progress after every step and
optionally pausing for human approval before sensitive tool calls.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "claude-sonnet-4-5", "model name passed to the provider")
	rootCmd.PersistentFlags().StringVar(&flagSystemPrompt, "system", "", "system prompt")
	rootCmd.PersistentFlags().IntVar(&flagMaxSteps, "max-steps", 0, "step budget override (0 = agent default)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "memory", "virtual filesystem backend: memory, disk, kv")
	rootCmd.PersistentFlags().StringVar(&flagBackendDir, "backend-dir", "", "root directory for --backend=disk")
	rootCmd.PersistentFlags().StringVar(&flagCheckpoint, "checkpoint", "memory", "checkpointer: none, memory, file, sqlite, kv, postgres")
	rootCmd.PersistentFlags().StringVar(&flagCheckpointPath, "checkpoint-path", "", "path/DSN for --checkpoint=file|sqlite")
	rootCmd.PersistentFlags().BoolVar(&flagInterruptAll, "interrupt-all", false, "require approval before write_file, edit_file, execute, and http_request")
	rootCmd.PersistentFlags().StringVar(&flagControlSocket, "control-socket", "", "Unix socket path to accept approve/deny/status commands on")
}

// Execute runs the root command, printing any error to stderr and setting
// a non-zero exit code the way every teacher subcommand's Run does.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
