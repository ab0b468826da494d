// Package main is the entry point for the netpulse CLI.
//
// NetPulse can be used either as a library (SDK) or as a standalone
// terminal monitor. This CLI provides the standalone monitor.
//
// Usage:
//
//	netpulse run                      # Start the live monitor with defaults
//	netpulse run -c netpulse.yaml     # Start with a config file
//	netpulse check                    # Run one measurement cycle and exit
//	netpulse validate -c netpulse.yaml # Validate configuration
//	netpulse version                  # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "netpulse",
	Short: "A live terminal network monitor",
	Long: `NetPulse is a live terminal network monitor.

It measures TCP-connect latency to a list of host:port targets and
estimates download throughput by reading a bounded byte range from a
probe URL, rendering a continuously refreshing colored view with
sparkline trend history.

Quick start:
  netpulse run
  netpulse run --hosts 8.8.8.8:53,myrouter.local:80 --interval 5s

Example config (netpulse.yaml):
  interval: 2s
  byte_budget: 262144
  targets:
    - 8.8.8.8:53
    - 1.1.1.1:53`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a colored terminal logger on stderr, keeping stdout
// free for the rendered frames.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	}))
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this netpulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netpulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
