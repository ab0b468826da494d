package netpulse

import "time"

// LatencySample is one TCP-connect latency measurement for a target.
//
// The zero value is a failure marker. A failed probe is never coerced to
// "0 ms" at this layer; only the trend histories store the documented
// 0.0 placeholder for failed samples.
type LatencySample struct {
	// Ms is the connect time in milliseconds. Zero when OK is false.
	Ms float64

	// OK reports whether the probe established a connection. False
	// means timeout, refusal, DNS failure, or an unreachable network.
	OK bool
}

// Results holds the outcome of the most recently completed measurement
// cycle. It is replaced wholesale after every cycle, so it never mixes
// values from different cycles.
type Results struct {
	// Pings maps each target key ("host:port") to its latency sample.
	// Every configured target has an entry after each cycle.
	Pings map[string]LatencySample

	// DownloadBps is the estimated download throughput in bytes per
	// second. Zero when the download probe failed.
	DownloadBps float64

	// Bytes is the number of bytes the download probe actually read.
	Bytes int64

	// Elapsed is the wall-clock duration of the download read phase.
	// Zero when the download probe failed.
	Elapsed time.Duration

	// MeasuredAt is when the cycle's bookkeeping completed.
	MeasuredAt time.Time
}

// Snapshot is an atomic, caller-owned copy of the engine's state.
//
// Snapshots are created fresh on every call to [Engine.Snapshot] and
// share no storage with the engine: the caller may read and mutate a
// snapshot freely without affecting the engine or future snapshots.
//
// The histories and Last are copied under the same lock as cycle
// bookkeeping, so the newest entry of every history always corresponds
// to Last.
type Snapshot struct {
	// Last is the most recently completed cycle's results.
	// Check HasResults before use; before the first cycle completes,
	// Last is the zero value.
	Last Results

	// HasResults reports whether at least one cycle has completed.
	HasResults bool

	// DownloadHistory is the rolling throughput history in bytes per
	// second, oldest first, at most 120 entries.
	DownloadHistory []float64

	// PingHistory maps each target key to its rolling latency history
	// in milliseconds, oldest first, at most 120 entries per target.
	// Failed probes appear as 0.0 here; consult Last.Pings to
	// distinguish "0 ms" from "no sample".
	PingHistory map[string][]float64
}
