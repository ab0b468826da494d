// Package netpulse provides a live network measurement engine: periodic
// TCP-connect latency checks against a set of host:port targets and a
// bounded download throughput estimate, with rolling histories suitable
// for terminal trend display.
//
// NetPulse is designed as an SDK-first library. The [Engine] samples on
// a background goroutine and exposes consistent point-in-time snapshots
// to any number of concurrent readers; the bundled cmd/netpulse CLI
// builds a colored terminal monitor on top of it.
//
// # Quick Start
//
// Create an engine, start it, and read snapshots:
//
//	eng, _ := netpulse.New(netpulse.WithTargets(netpulse.DefaultTargets()...))
//
//	eng.Start()
//	defer eng.Stop()
//
//	for range time.Tick(time.Second) {
//	    snap := eng.Snapshot()
//	    fmt.Println(snap.Last.DownloadBps)
//	}
//
// # Configuration
//
// NetPulse uses the functional options pattern for configuration:
//
//	eng, err := netpulse.New(
//	    netpulse.WithTargets(targets...),
//	    netpulse.WithProbeURL("http://speedtest.example.com/10MB.bin"),
//	    netpulse.WithByteBudget(512*1024),
//	    netpulse.WithInterval(5*time.Second),
//	    netpulse.WithMaxConcurrency(4),
//	)
//
// # Measurement Model
//
// Each cycle probes every target's TCP-connect latency (concurrently,
// bounded by the configured concurrency) plus one bounded download read.
// Failures are explicit markers, never exceptions: a persistently
// failing target shows as a "no sample" marker in [Results.Pings] and a
// flat zero trend line, and never crashes the sampler.
//
// Snapshots are atomic with respect to cycle bookkeeping: a [Snapshot]
// never mixes one cycle's history tail with another cycle's results.
// Network I/O always happens outside the engine's lock, so a hanging
// probe cannot block readers.
//
// # Architecture
//
// NetPulse consists of several internal packages (under internal/):
//
//   - internal/probe: TCP-connect and bounded-download probe functions
//   - internal/history: fixed-capacity rolling sample buffers
//   - internal/sampler: the sampling loop, mutation boundary, snapshots
//   - internal/render: ANSI terminal rendering with sparkline trends
//
// The internal packages are not part of the public API and may change
// without notice.
package netpulse
