package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbaror/netpulse"
	"github.com/kbaror/netpulse/config"
	"github.com/kbaror/netpulse/internal/render"
)

const minRefresh = 500 * time.Millisecond

// runCmd starts the live terminal monitor.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the live monitor",
	Long: `Start the NetPulse live terminal monitor.

The monitor will:
  - Probe all configured targets on the sampling interval
  - Estimate download throughput from the probe URL each cycle
  - Redraw the terminal view with latency and throughput trends

The monitor runs until interrupted (Ctrl+C) or receives SIGTERM, then
prints a summary of the last measurements.

Example:
  netpulse run
  netpulse run --hosts 8.8.8.8:53,google.com --interval 5s
  netpulse run -c netpulse.yaml`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(runCmd)
	registerEngineFlags(runCmd)
}

// registerEngineFlags adds the engine configuration flags shared by the
// run and check commands.
func registerEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to YAML config file")
	cmd.Flags().String("hosts", "", "comma-separated host:port list (default: 8.8.8.8:53,1.1.1.1:53,google.com:80)")
	cmd.Flags().String("url", "", "URL to fetch a bounded chunk from for the download estimate")
	cmd.Flags().Int64("bytes", 0, "bytes to read per download probe (default 262144 = 256 KiB)")
	cmd.Flags().Duration("interval", 0, "time between measurement cycles (default 2s)")
	cmd.Flags().BoolP("verbose", "v", false, "show debug logs")
}

// engineOptions assembles SDK options from the config file (if any)
// with flag overrides applied on top. Flags replace, not extend, the
// file values.
func engineOptions(cmd *cobra.Command, logger *slog.Logger) ([]netpulse.Option, error) {
	cfg := &config.Config{}

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if hosts, _ := cmd.Flags().GetString("hosts"); hosts != "" {
		cfg.Targets = []string{hosts}
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.ProbeURL = url
	}
	if bytes, _ := cmd.Flags().GetInt64("bytes"); bytes != 0 {
		cfg.ByteBudget = bytes
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval != 0 {
		cfg.Interval = config.Duration(interval)
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return nil, err
	}
	return append(opts, netpulse.WithLogger(logger)), nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng.Start()
	defer eng.Stop()

	meta := render.Meta{
		ProbeURL:   eng.ProbeURL(),
		Interval:   eng.Interval(),
		ByteBudget: eng.ByteBudget(),
	}

	refresh := eng.Interval() / 2
	if refresh < minRefresh {
		refresh = minRefresh
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	// small head start so the first frame usually has data
	select {
	case <-ctx.Done():
	case <-time.After(200 * time.Millisecond):
	}

	spin := 0
	for {
		select {
		case <-ctx.Done():
			eng.Stop()
			render.ClearScreen(os.Stdout)
			render.Summary(os.Stdout, eng.Snapshot())
			return nil
		case <-ticker.C:
			render.ClearScreen(os.Stdout)
			render.Frame(os.Stdout, eng.Snapshot(), meta, spin)
			spin++
		}
	}
}
