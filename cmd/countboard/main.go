// Package main is the entry point for the countboard CLI.
//
// countboard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	countboard serve -c config.yaml    # Start the dashboard
//	countboard validate -c config.yaml # Validate configuration
//	countboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "countboard",
	Short: "A dashboard of work queues with live pending counts",
	Long: `countboard serves a single-page dashboard of clickable tiles.

Each tile links to a work queue and shows how many items are pending there.
Counts are fetched from JSON endpoints in parallel, refreshed on a timer and
on demand, and pushed to the browser with Server-Sent Events.

Quick start:
  1. Create a config file (countboard.yaml)
  2. Run: countboard serve -c countboard.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  refresh_interval: 60s
  tiles:
    - id: approve
      title: Approve Orders
      url: https://orders.example.com/approve
      count_url: https://api.example.com/pending?key=${DASH_KEY}
      icon: check`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this countboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("countboard %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
