package netpulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kbaror/netpulse/internal/sampler"
)

const (
	// DefaultProbeURL is the download probe used when none is configured.
	DefaultProbeURL = "http://ipv4.download.thinkbroadband.com/5MB.zip"

	// DefaultByteBudget is the per-probe download read limit (256 KiB).
	DefaultByteBudget = 256 * 1024

	// DefaultInterval is the sampling cadence used when none is configured.
	DefaultInterval = 2 * time.Second

	// MinInterval is the floor applied to the configured interval.
	// Shorter intervals are clamped, not rejected.
	MinInterval = sampler.MinInterval
)

// Configuration errors returned by [New].
var (
	// ErrNoTargets indicates the engine was constructed with an empty
	// target list.
	ErrNoTargets = errors.New("at least one target is required")

	// ErrByteBudget indicates a non-positive download byte budget.
	ErrByteBudget = errors.New("byte budget must be positive")
)

// Engine is the NetPulse measurement engine.
//
// Engine periodically measures TCP-connect latency to a fixed set of
// targets and estimates download throughput by reading a bounded byte
// range from a probe URL, maintaining a rolling history of both. It is
// created with [New] and driven with [Engine.Start], [Engine.Stop], and
// [Engine.Snapshot].
//
// The typical lifecycle is:
//
//	eng, err := netpulse.New(netpulse.WithTargets(netpulse.DefaultTargets()...))
//	if err != nil {
//	    slog.Error("failed to create engine", "error", err)
//	    os.Exit(1)
//	}
//
//	eng.Start()
//	defer eng.Stop()
//
//	for {
//	    snap := eng.Snapshot()
//	    // render snap ...
//	}
//
// Any number of goroutines may call Snapshot concurrently while the
// engine samples in the background. Start after Stop is legal and
// preserves the accumulated histories.
type Engine struct {
	targets        []Target
	probeURL       string
	byteBudget     int64
	interval       time.Duration
	maxConcurrency int
	logger         *slog.Logger
	sampler        *sampler.Sampler
}

// New creates a new [Engine] with the given options.
//
// At least one target must be configured via [WithTargets]. Other
// options have defaults matching [DefaultProbeURL], [DefaultByteBudget],
// and [DefaultInterval]. Intervals below [MinInterval] are clamped; all
// other invalid configuration is rejected.
//
// Example:
//
//	eng, err := netpulse.New(
//	    netpulse.WithTargets(netpulse.Target{Host: "8.8.8.8", Port: 53}),
//	    netpulse.WithProbeURL("http://speedtest.example.com/10MB.bin"),
//	    netpulse.WithInterval(5 * time.Second),
//	)
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{
		probeURL:   DefaultProbeURL,
		byteBudget: DefaultByteBudget,
		interval:   DefaultInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.targets) == 0 {
		return nil, ErrNoTargets
	}
	if cfg.byteBudget <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrByteBudget, cfg.byteBudget)
	}

	// validate target key uniqueness (required for per-target histories)
	seen := make(map[string]bool, len(cfg.targets))
	for _, t := range cfg.targets {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if seen[t.Key()] {
			return nil, fmt.Errorf("duplicate target: %q", t.Key())
		}
		seen[t.Key()] = true
	}

	if cfg.interval < MinInterval {
		cfg.interval = MinInterval
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	samplerCfg := sampler.Config{
		Targets:        toSamplerTargets(cfg.targets),
		ProbeURL:       cfg.probeURL,
		ByteBudget:     cfg.byteBudget,
		Interval:       cfg.interval,
		MaxConcurrency: cfg.maxConcurrency,
		Clock:          cfg.clock,
		Logger:         logger,
	}
	if len(cfg.cycleCallbacks) > 0 {
		callbacks := cfg.cycleCallbacks
		samplerCfg.OnCycle = func(r sampler.Results) {
			public := samplerResultsToPublic(r)
			for _, cb := range callbacks {
				cb(public)
			}
		}
	}

	s, err := sampler.New(samplerCfg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		targets:        cfg.targets,
		probeURL:       cfg.probeURL,
		byteBudget:     cfg.byteBudget,
		interval:       cfg.interval,
		maxConcurrency: cfg.maxConcurrency,
		logger:         logger,
		sampler:        s,
	}, nil
}

// Start transitions the engine to running and begins sampling in a
// background goroutine. The first cycle runs immediately; each later
// cycle starts one interval after the previous cycle completes, so slow
// cycles stretch the cadence rather than overlapping.
//
// Start is idempotent while running, and legal again after [Engine.Stop];
// histories persist across restarts.
func (e *Engine) Start() {
	e.logger.Info("netpulse starting",
		"targets", len(e.targets),
		"interval", e.interval.String(),
		"probe_url", e.probeURL,
	)
	e.sampler.Start()
}

// Stop halts the sampling loop, letting any in-flight cycle complete.
// It is cooperative (running probes are not interrupted), idempotent,
// and safe to call before Start.
func (e *Engine) Stop() {
	e.sampler.Stop()
}

// Running reports whether the sampling loop is active.
func (e *Engine) Running() bool {
	return e.sampler.Running()
}

// Snapshot returns an atomic, caller-owned copy of the last results and
// all rolling histories. See [Snapshot] for the consistency guarantees.
func (e *Engine) Snapshot() Snapshot {
	return samplerSnapshotToPublic(e.sampler.Snapshot())
}

// MeasureOnce runs a single blocking measurement cycle and returns its
// results. It can be used alongside or instead of the background loop;
// the cycle's samples are recorded in the histories either way.
func (e *Engine) MeasureOnce(ctx context.Context) Results {
	return samplerResultsToPublic(e.sampler.RunCycle(ctx))
}

// Targets returns a copy of the configured target set.
func (e *Engine) Targets() []Target {
	cp := make([]Target, len(e.targets))
	copy(cp, e.targets)
	return cp
}

// ProbeURL returns the configured download probe URL.
func (e *Engine) ProbeURL() string {
	return e.probeURL
}

// ByteBudget returns the configured per-probe download read limit.
func (e *Engine) ByteBudget() int64 {
	return e.byteBudget
}

// Interval returns the sampling cadence, after clamping.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// toSamplerTargets converts the public target set to the sampler's
// internal representation.
func toSamplerTargets(targets []Target) []sampler.Target {
	out := make([]sampler.Target, len(targets))
	for i, t := range targets {
		out[i] = sampler.Target{Host: t.Host, Port: t.Port}
	}
	return out
}

// samplerResultsToPublic converts internal cycle results to the public
// API type, dropping probe-internal failure detail.
func samplerResultsToPublic(r sampler.Results) Results {
	pings := make(map[string]LatencySample, len(r.Pings))
	for key, lat := range r.Pings {
		pings[key] = LatencySample{Ms: lat.Ms, OK: lat.OK}
	}
	return Results{
		Pings:       pings,
		DownloadBps: r.DownloadBps,
		Bytes:       r.Bytes,
		Elapsed:     r.Elapsed,
		MeasuredAt:  r.MeasuredAt,
	}
}

// samplerSnapshotToPublic converts an internal snapshot to the public
// API type. The sampler already handed over fresh copies, so no further
// copying is needed here.
func samplerSnapshotToPublic(s sampler.Snapshot) Snapshot {
	return Snapshot{
		Last:            samplerResultsToPublic(s.Last),
		HasResults:      s.HasResults,
		DownloadHistory: s.DownloadHistory,
		PingHistory:     s.PingHistory,
	}
}
