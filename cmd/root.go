package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calendaragent application
var rootCmd = &cobra.Command{
	Use:   "calendaragent",
	Short: "Natural-language calendar assistant backed by an LLM",
	Long: `calendaragent turns natural-language requests into calendar operations.
A chat model decides which calendar tool to call (create, list, postpone or
delete an event), the tools run against the configured calendar backend and
the model writes the final reply.

It can run as:
  - An HTTP API (serve)
  - A one-shot command line assistant (ask)
  - An MCP (Model Context Protocol) server exposing the calendar tools (mcp)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	configPath string
	debugMode  bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calendaragent version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML configuration file. Can also use CALENDARAGENT_CONFIG env var.")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
