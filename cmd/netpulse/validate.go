package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbaror/netpulse"
	"github.com/kbaror/netpulse/config"
)

// validateCmd validates a config file without starting the monitor.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a NetPulse configuration file without starting the monitor.

This command parses the YAML, expands environment variables, and checks
that the resulting engine configuration is buildable. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  netpulse validate -c netpulse.yaml
  netpulse validate --config /etc/netpulse/netpulse.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	eng, err := netpulse.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	defer eng.Stop()

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Targets:       %d\n", len(eng.Targets()))
	fmt.Printf("  Probe URL:     %s\n", eng.ProbeURL())
	fmt.Printf("  Byte budget:   %d\n", eng.ByteBudget())
	fmt.Printf("  Interval:      %s\n", eng.Interval())

	return nil
}
