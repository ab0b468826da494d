package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbaror/netpulse"
	"github.com/kbaror/netpulse/internal/render"
)

// checkCmd runs a single measurement cycle and prints the results.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one measurement cycle and exit",
	Long: `Run a single measurement cycle against the configured targets and
print the results without starting the live monitor.

Exit codes:
  0 - At least one probe produced a sample
  1 - Every probe failed

Example:
  netpulse check
  netpulse check --hosts 8.8.8.8:53 --url http://example.com/file.bin`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	registerEngineFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	opts, err := engineOptions(cmd, logger)
	if err != nil {
		return err
	}

	eng, err := netpulse.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Stop()

	results := eng.MeasureOnce(cmd.Context())

	anyOK := false
	for _, t := range eng.Targets() {
		sample := results.Pings[t.Key()]
		if sample.OK {
			anyOK = true
		}
		fmt.Printf("  %-22s %s\n", t.Key(), render.FormatLatency(sample))
	}

	if results.Elapsed > 0 {
		anyOK = true
		fmt.Printf("  %-22s %s (%d bytes in %.2fs)\n",
			"download", render.HumanMbps(results.DownloadBps), results.Bytes, results.Elapsed.Seconds())
	} else {
		fmt.Printf("  %-22s failed\n", "download")
	}

	if !anyOK {
		return fmt.Errorf("all probes failed")
	}
	return nil
}
