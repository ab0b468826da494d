package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/kbaror/netpulse/internal/history"
	"github.com/kbaror/netpulse/internal/probe"
)

const (
	// DefaultPingTimeout bounds each TCP-connect probe.
	DefaultPingTimeout = 1200 * time.Millisecond

	// DefaultDownloadTimeout bounds the single download probe per cycle.
	DefaultDownloadTimeout = 6 * time.Second

	// MinInterval is the floor applied to the sampling cadence.
	MinInterval = time.Second

	defaultMaxConcurrency = 8
)

// Target is a host/port pair whose TCP-connect latency is tracked.
//
// This is the sampler-internal representation, decoupled from the public
// netpulse.Target type to avoid circular dependencies.
type Target struct {
	Host string
	Port int
}

// Key returns the canonical "host:port" identity used for history maps.
func (t Target) Key() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// Results holds the outcome of the most recently completed cycle.
//
// Pings maps each target key to its latency sample; failed probes keep
// their explicit failure marker here rather than a coerced zero. Results
// is replaced wholesale at the end of every cycle, never merged, so it
// always reflects exactly one cycle.
type Results struct {
	Pings       map[string]probe.Latency
	DownloadBps float64
	Bytes       int64
	Elapsed     time.Duration
	MeasuredAt  time.Time
}

// Snapshot is an atomic, caller-owned copy of the sampler's state.
//
// The histories and the Pings map are fresh copies taken under the same
// lock as the bookkeeping phase of a cycle, so the newest history entries
// always correspond to Last. Mutating a snapshot never affects the
// sampler or future snapshots.
type Snapshot struct {
	Last            Results
	HasResults      bool
	DownloadHistory []float64
	PingHistory     map[string][]float64
}

// Config configures a [Sampler].
type Config struct {
	// Targets is the fixed set of hosts to probe. Required, immutable
	// for the sampler's lifetime.
	Targets []Target

	// ProbeURL is the download throughput probe URL. Required.
	ProbeURL string

	// ByteBudget is the maximum number of bytes read per download
	// probe. Required, must be positive.
	ByteBudget int64

	// Interval is the sampling cadence. Values below [MinInterval]
	// are clamped, not rejected.
	Interval time.Duration

	// PingTimeout bounds each latency probe.
	// Defaults to [DefaultPingTimeout].
	PingTimeout time.Duration

	// DownloadTimeout bounds the download probe.
	// Defaults to [DefaultDownloadTimeout].
	DownloadTimeout time.Duration

	// MaxConcurrency limits concurrent latency probes per cycle.
	// Defaults to 8.
	MaxConcurrency int

	// Clock is the time source for the sampling loop. Defaults to the
	// real clock; tests inject a fake.
	Clock clockwork.Clock

	// Logger receives cycle-level diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// OnCycle, if set, is invoked after each completed cycle with that
	// cycle's results. It runs outside the sampler's lock, with panic
	// recovery; it must not block.
	OnCycle func(Results)
}

// Validate checks required fields and applies defaults in place.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("at least one target is required")
	}
	if c.ProbeURL == "" {
		return errors.New("probe URL is required")
	}
	if c.ByteBudget <= 0 {
		return fmt.Errorf("byte budget must be positive, got %d", c.ByteBudget)
	}
	if c.Interval < MinInterval {
		c.Interval = MinInterval
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = DefaultDownloadTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// targetSample pairs one cycle's latency result with its target key.
type targetSample struct {
	key     string
	latency probe.Latency
}

// Sampler runs measurement cycles on a fixed cadence and maintains
// bounded rolling histories of the results.
//
// All bookkeeping state (last results and every history) sits behind a
// single mutex. Network I/O happens outside that mutex, so a slow or
// hanging probe never blocks a concurrent [Sampler.Snapshot] for longer
// than the copy cost.
//
// The lifecycle is re-entrant: Start, Stop, Start again is legal, and
// histories persist across restarts. Start and Stop are safe for
// concurrent use.
type Sampler struct {
	cfg    Config
	client *probe.Client
	pings  pond.ResultPool[targetSample]

	// mu is the single mutation boundary for all measurement state.
	mu           sync.Mutex
	last         Results
	hasResults   bool
	downloadHist *history.Ring
	pingHist     map[string]*history.Ring

	// runMu guards the lifecycle only, never held during a cycle.
	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a [Sampler]. The config is validated and defaulted; the
// target set and one empty history per target are fixed from this point.
func New(cfg Config) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pingHist := make(map[string]*history.Ring, len(cfg.Targets))
	for _, t := range cfg.Targets {
		pingHist[t.Key()] = history.NewRing(history.DefaultCapacity)
	}

	return &Sampler{
		cfg:          cfg,
		client:       probe.NewClient(),
		pings:        pond.NewResultPool[targetSample](cfg.MaxConcurrency),
		downloadHist: history.NewRing(history.DefaultCapacity),
		pingHist:     pingHist,
	}, nil
}

// RunCycle performs one full round of probing: every target's latency
// plus one download probe. The probes themselves run outside the lock;
// only the bookkeeping (history appends and the wholesale replacement of
// the last results) happens inside it.
//
// Probe failures are recovered locally: a failed latency probe is
// recorded as a marked sample and a 0.0 history entry, a failed download
// as a 0.0 throughput sample. One target's failure never blanks the
// rest of the cycle.
func (s *Sampler) RunCycle(ctx context.Context) Results {
	group := s.pings.NewGroupContext(ctx)
	for _, t := range s.cfg.Targets {
		t := t
		group.SubmitErr(func() (targetSample, error) {
			return targetSample{
				key:     t.Key(),
				latency: probe.PingTCP(ctx, t.Host, t.Port, s.cfg.PingTimeout),
			}, nil
		})
	}

	// run the download probe on this goroutine while the latency
	// probes fan out
	tp := s.client.Download(ctx, s.cfg.ProbeURL, s.cfg.ByteBudget, s.cfg.DownloadTimeout)

	samples, err := group.Wait()
	if err != nil {
		// tasks never return errors; this only fires on group
		// context cancellation mid-cycle
		s.cfg.Logger.Debug("latency probe group interrupted", "error", err)
	}

	pings := make(map[string]probe.Latency, len(s.cfg.Targets))
	for _, sample := range samples {
		pings[sample.key] = sample.latency
	}
	// targets whose task never ran (cancelled group) still get a marker
	for _, t := range s.cfg.Targets {
		if _, ok := pings[t.Key()]; !ok {
			pings[t.Key()] = probe.Latency{Reason: probe.FailOther}
		}
	}

	results := Results{
		Pings:       pings,
		DownloadBps: tp.BytesPerSecond(),
		Bytes:       tp.Bytes,
		Elapsed:     tp.Elapsed,
		MeasuredAt:  s.cfg.Clock.Now(),
	}

	s.mu.Lock()
	s.downloadHist.Append(results.DownloadBps)
	for key, lat := range pings {
		if ring, ok := s.pingHist[key]; ok {
			// history stores 0.0 for failures; the marker survives
			// in Results
			ring.Append(lat.Ms)
		}
	}
	s.last = results
	s.hasResults = true
	s.mu.Unlock()

	if s.cfg.OnCycle != nil {
		s.invokeOnCycle(results)
	}
	return results
}

// Start transitions the sampler to Running and begins the sampling loop
// in a background goroutine. The first cycle runs immediately; each
// subsequent cycle starts one interval after the previous cycle
// COMPLETES, so overruns self-throttle instead of queueing.
//
// Start is idempotent while running. After a Stop, Start may be called
// again; histories persist across restarts.
func (s *Sampler) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop transitions the sampler to Stopped and waits for any in-flight
// cycle to complete. It is cooperative: it never interrupts a running
// probe, it only prevents further cycles from being scheduled.
//
// Stop is idempotent and safe to call before Start.
func (s *Sampler) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		s.running = false
		s.cancel()
	}

	// the loop never takes runMu, so waiting under it is safe and keeps
	// a concurrent Start from racing the teardown
	s.wg.Wait()
	s.client.Close()
}

// Running reports whether the sampling loop is active.
func (s *Sampler) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Snapshot returns an independently-owned copy of the last results and
// every rolling history, taken atomically with respect to cycle
// bookkeeping.
func (s *Sampler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	pingHistory := make(map[string][]float64, len(s.pingHist))
	for key, ring := range s.pingHist {
		pingHistory[key] = ring.Values()
	}

	return Snapshot{
		Last:            copyResults(s.last),
		HasResults:      s.hasResults,
		DownloadHistory: s.downloadHist.Values(),
		PingHistory:     pingHistory,
	}
}

// loop is the background sample-and-sleep loop. The next tick is
// scheduled from cycle completion, not on a fixed-rate timer, so a cycle
// overrun stretches the cadence to max(interval, cycle duration) without
// overlap or backlog.
func (s *Sampler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		// probes intentionally run on a background context: Stop is
		// cooperative and lets the in-flight cycle finish
		s.runCycleSafe(context.Background())

		select {
		case <-ctx.Done():
			return
		case <-s.cfg.Clock.After(s.cfg.Interval):
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// runCycleSafe runs one cycle with panic recovery. A single bad cycle
// is logged with a correlation ID and must never kill the loop.
func (s *Sampler) runCycleSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.cfg.Logger.Error("sampling cycle panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.RunCycle(ctx)
}

// invokeOnCycle calls the cycle callback with panic recovery.
func (s *Sampler) invokeOnCycle(results Results) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.Logger.Error("cycle callback panicked", "panic", r)
		}
	}()
	s.cfg.OnCycle(copyResults(results))
}

// copyResults deep-copies a Results so callers never alias sampler state.
func copyResults(r Results) Results {
	if r.Pings == nil {
		return r
	}
	pings := make(map[string]probe.Latency, len(r.Pings))
	for k, v := range r.Pings {
		pings[k] = v
	}
	r.Pings = pings
	return r
}
