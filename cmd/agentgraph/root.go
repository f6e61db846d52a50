package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentgraph",
	Short: "Conversational agent turn orchestration",
	Long: `Agentgraph runs bounded conversational agent turns: it routes one user
message through planning, model calls, tool execution and progress tracking,
and returns the final assistant reply.

Configuration is read from .agentgraph.yaml in the working directory,
~/.config/agentgraph/config.yaml, and AGENTGRAPH_* environment variables.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an explicit config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
