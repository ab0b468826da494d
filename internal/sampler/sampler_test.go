package sampler

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// liveTarget starts a local TCP listener and returns a Target that will
// accept connections for the duration of the test.
func liveTarget(t *testing.T) Target {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return Target{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port}
}

// deadTarget returns a Target whose port is guaranteed closed.
func deadTarget(t *testing.T) Target {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return Target{Host: "127.0.0.1", Port: port}
}

// probeServer serves a fixed payload for download probes.
func probeServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 8*1024))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, targets ...Target) Config {
	t.Helper()

	return Config{
		Targets:         targets,
		ProbeURL:        probeServer(t).URL,
		ByteBudget:      4 * 1024,
		Interval:        time.Second,
		PingTimeout:     500 * time.Millisecond,
		DownloadTimeout: 2 * time.Second,
		Logger:          testLogger(),
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no targets",
			mutate:  func(c *Config) { c.Targets = nil },
			wantErr: "at least one target is required",
		},
		{
			name:    "missing probe url",
			mutate:  func(c *Config) { c.ProbeURL = "" },
			wantErr: "probe URL is required",
		},
		{
			name:    "zero byte budget",
			mutate:  func(c *Config) { c.ByteBudget = 0 },
			wantErr: "byte budget must be positive",
		},
		{
			name:    "negative byte budget",
			mutate:  func(c *Config) { c.ByteBudget = -1 },
			wantErr: "byte budget must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Targets:    []Target{{Host: "example.com", Port: 80}},
				ProbeURL:   "http://example.com/probe",
				ByteBudget: 1024,
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_Defaults(t *testing.T) {
	cfg := Config{
		Targets:    []Target{{Host: "example.com", Port: 80}},
		ProbeURL:   "http://example.com/probe",
		ByteBudget: 1024,
		Interval:   100 * time.Millisecond, // below the floor
	}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, MinInterval, cfg.Interval, "sub-second interval must be clamped, not rejected")
	assert.Equal(t, DefaultPingTimeout, cfg.PingTimeout)
	assert.Equal(t, DefaultDownloadTimeout, cfg.DownloadTimeout)
	assert.NotNil(t, cfg.Clock)
	assert.NotNil(t, cfg.Logger)
}

func TestTarget_Key(t *testing.T) {
	assert.Equal(t, "8.8.8.8:53", Target{Host: "8.8.8.8", Port: 53}.Key())
	assert.Equal(t, "google.com:80", Target{Host: "google.com", Port: 80}.Key())
}

// TestSampler_RunCycle_FailureIsolation verifies that one target failing
// never blanks the rest of the cycle: the live target keeps its finite
// sample and the dead target gets an explicit marker.
func TestSampler_RunCycle_FailureIsolation(t *testing.T) {
	live := liveTarget(t)
	dead := deadTarget(t)

	s, err := New(testConfig(t, live, dead))
	require.NoError(t, err)
	defer s.Stop()

	results := s.RunCycle(context.Background())

	liveSample := results.Pings[live.Key()]
	require.True(t, liveSample.OK)
	assert.GreaterOrEqual(t, liveSample.Ms, 0.0)

	deadSample := results.Pings[dead.Key()]
	require.False(t, deadSample.OK)
	assert.Zero(t, deadSample.Ms)
}

// TestSampler_RunCycle_UnreachableTarget covers the sustained-failure
// case: a non-routable address records a failure marker in the results
// and a 0.0 placeholder at the tail of its history.
func TestSampler_RunCycle_UnreachableTarget(t *testing.T) {
	cfg := testConfig(t, Target{Host: "192.0.2.1", Port: 81})
	cfg.PingTimeout = 100 * time.Millisecond

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Stop()

	s.RunCycle(context.Background())
	snap := s.Snapshot()

	require.True(t, snap.HasResults)
	sample := snap.Last.Pings["192.0.2.1:81"]
	assert.False(t, sample.OK)

	hist := snap.PingHistory["192.0.2.1:81"]
	require.Len(t, hist, 1)
	assert.Equal(t, 0.0, hist[0])
}

// TestSampler_Snapshot_Atomic verifies that a snapshot never shows a
// partial cycle: the download history and every ping history grow in
// lockstep, one entry per completed cycle.
func TestSampler_Snapshot_Atomic(t *testing.T) {
	live := liveTarget(t)

	s, err := New(testConfig(t, live))
	require.NoError(t, err)
	defer s.Stop()

	before := s.Snapshot()
	assert.False(t, before.HasResults)
	assert.Empty(t, before.DownloadHistory)
	assert.Empty(t, before.PingHistory[live.Key()])

	for cycle := 1; cycle <= 3; cycle++ {
		s.RunCycle(context.Background())

		snap := s.Snapshot()
		require.True(t, snap.HasResults)
		assert.Len(t, snap.DownloadHistory, cycle)
		assert.Len(t, snap.PingHistory[live.Key()], cycle)

		// the newest history entry corresponds to the results in the
		// same snapshot
		last := snap.PingHistory[live.Key()][cycle-1]
		assert.Equal(t, snap.Last.Pings[live.Key()].Ms, last)
		assert.Equal(t, snap.Last.DownloadBps, snap.DownloadHistory[cycle-1])
	}
}

// TestSampler_Snapshot_Independent verifies that snapshots are deep
// copies: mutating one affects neither the sampler nor later snapshots.
func TestSampler_Snapshot_Independent(t *testing.T) {
	live := liveTarget(t)

	s, err := New(testConfig(t, live))
	require.NoError(t, err)
	defer s.Stop()

	s.RunCycle(context.Background())

	snap := s.Snapshot()
	snap.DownloadHistory[0] = -1
	snap.PingHistory[live.Key()][0] = -1
	delete(snap.Last.Pings, live.Key())

	fresh := s.Snapshot()
	assert.NotEqual(t, -1.0, fresh.DownloadHistory[0])
	assert.NotEqual(t, -1.0, fresh.PingHistory[live.Key()][0])
	assert.Contains(t, fresh.Last.Pings, live.Key())
}

func TestSampler_StopIdempotent(t *testing.T) {
	s, err := New(testConfig(t, Target{Host: "127.0.0.1", Port: 9}))
	require.NoError(t, err)

	// Stop before any Start must be a safe no-op
	s.Stop()
	assert.False(t, s.Running())

	s.Start()
	assert.True(t, s.Running())

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

// TestSampler_RestartPreservesHistory verifies the re-entrant lifecycle:
// Start after Stop resets nothing but the running flag.
func TestSampler_RestartPreservesHistory(t *testing.T) {
	live := liveTarget(t)

	s, err := New(testConfig(t, live))
	require.NoError(t, err)

	s.RunCycle(context.Background())
	s.RunCycle(context.Background())

	s.Start()
	s.Stop()

	snap := s.Snapshot()
	assert.GreaterOrEqual(t, len(snap.PingHistory[live.Key()]), 2,
		"histories must persist across stop/start")
}

// TestSampler_LoopSelfThrottles drives the sampling loop with a fake
// clock: the first cycle runs immediately on Start, and each later cycle
// only after the interval elapses from the previous cycle's completion.
func TestSampler_LoopSelfThrottles(t *testing.T) {
	live := liveTarget(t)
	clock := clockwork.NewFakeClock()

	cycles := make(chan Results, 16)
	cfg := testConfig(t, live)
	cfg.Clock = clock
	cfg.OnCycle = func(r Results) { cycles <- r }

	s, err := New(cfg)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	// first cycle fires without any clock advance
	select {
	case <-cycles:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for first cycle")
	}

	// no further cycle until the interval passes
	select {
	case <-cycles:
		t.Fatal("cycle ran before the interval elapsed")
	case <-time.After(100 * time.Millisecond):
	}

	// wait until the loop is parked on the clock, then advance
	clock.BlockUntil(1)
	clock.Advance(cfg.Interval)

	select {
	case <-cycles:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for second cycle")
	}
}

// TestSampler_CallbackPanicRecovered verifies that a panicking cycle
// callback cannot kill the sampling loop.
func TestSampler_CallbackPanicRecovered(t *testing.T) {
	live := liveTarget(t)

	cfg := testConfig(t, live)
	cfg.OnCycle = func(Results) { panic("callback bug") }

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Stop()

	require.NotPanics(t, func() { s.RunCycle(context.Background()) })

	snap := s.Snapshot()
	assert.True(t, snap.HasResults, "cycle bookkeeping must complete despite the callback panic")
}

// TestSampler_ConcurrentSnapshots verifies that readers can snapshot
// freely while cycles run. Run with: go test -race ./internal/sampler/...
func TestSampler_ConcurrentSnapshots(t *testing.T) {
	live := liveTarget(t)

	s, err := New(testConfig(t, live))
	require.NoError(t, err)
	defer s.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			s.RunCycle(context.Background())
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			snap := s.Snapshot()
			assert.Len(t, snap.PingHistory, 1)
		}
	}
}
