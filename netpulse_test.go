package netpulse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTarget starts a local TCP listener that accepts and closes
// connections for the duration of the test.
func testTarget(t *testing.T) Target {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
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

// testProbeServer serves a small payload for download probes.
func testProbeServer(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 16*1024))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestNew_RequiresTargets(t *testing.T) {
	_, err := New(WithLogger(testLogger()))
	if !errors.Is(err, ErrNoTargets) {
		t.Errorf("New() error = %v, want ErrNoTargets", err)
	}
}

func TestNew_RejectsNonPositiveByteBudget(t *testing.T) {
	for _, budget := range []int64{0, -1} {
		_, err := New(
			WithTargets(Target{Host: "example.com", Port: 80}),
			WithByteBudget(budget),
			WithLogger(testLogger()),
		)
		if !errors.Is(err, ErrByteBudget) {
			t.Errorf("New(byte budget %d) error = %v, want ErrByteBudget", budget, err)
		}
	}
}

func TestNew_RejectsDuplicateTargets(t *testing.T) {
	_, err := New(
		WithTargets(
			Target{Host: "8.8.8.8", Port: 53},
			Target{Host: "8.8.8.8", Port: 53},
		),
		WithLogger(testLogger()),
	)
	if err == nil {
		t.Error("New() accepted duplicate targets, want error")
	}
}

func TestNew_RejectsInvalidPort(t *testing.T) {
	_, err := New(
		WithTargets(Target{Host: "localhost", Port: 9999999}),
		WithLogger(testLogger()),
	)
	if err == nil {
		t.Error("New() accepted out-of-range port, want error")
	}
}

func TestNew_ClampsInterval(t *testing.T) {
	eng, err := New(
		WithTargets(Target{Host: "example.com", Port: 80}),
		WithInterval(250*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if eng.Interval() != MinInterval {
		t.Errorf("Interval() = %v, want clamp to %v", eng.Interval(), MinInterval)
	}
}

func TestNew_OptionValidation(t *testing.T) {
	base := WithTargets(Target{Host: "example.com", Port: 80})

	tests := []struct {
		name string
		opt  Option
	}{
		{"zero interval", WithInterval(0)},
		{"empty probe URL", WithProbeURL("")},
		{"zero concurrency", WithMaxConcurrency(0)},
		{"nil logger", WithLogger(nil)},
		{"nil clock", WithClock(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(base, tt.opt); err == nil {
				t.Error("New() = nil error, want validation error")
			}
		})
	}
}

func TestEngine_Defaults(t *testing.T) {
	eng, err := New(
		WithTargets(Target{Host: "example.com", Port: 80}),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if eng.ProbeURL() != DefaultProbeURL {
		t.Errorf("ProbeURL() = %q, want %q", eng.ProbeURL(), DefaultProbeURL)
	}
	if eng.ByteBudget() != DefaultByteBudget {
		t.Errorf("ByteBudget() = %d, want %d", eng.ByteBudget(), DefaultByteBudget)
	}
	if eng.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", eng.Interval(), DefaultInterval)
	}
}

func TestEngine_TargetsReturnsCopy(t *testing.T) {
	eng, err := New(
		WithTargets(Target{Host: "example.com", Port: 80}),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	targets := eng.Targets()
	targets[0] = Target{Host: "mutated", Port: 1}

	if eng.Targets()[0].Host != "example.com" {
		t.Error("mutating the returned slice changed the engine's targets")
	}
}

func TestEngine_MeasureOnceAndSnapshot(t *testing.T) {
	target := testTarget(t)

	eng, err := New(
		WithTargets(target),
		WithProbeURL(testProbeServer(t)),
		WithByteBudget(8*1024),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer eng.Stop()

	results := eng.MeasureOnce(context.Background())

	sample, ok := results.Pings[target.Key()]
	if !ok {
		t.Fatalf("Pings missing key %q", target.Key())
	}
	if !sample.OK {
		t.Errorf("ping to local listener failed: %+v", sample)
	}
	if results.DownloadBps <= 0 {
		t.Errorf("DownloadBps = %v, want > 0", results.DownloadBps)
	}

	snap := eng.Snapshot()
	if !snap.HasResults {
		t.Fatal("Snapshot().HasResults = false after MeasureOnce")
	}
	if len(snap.DownloadHistory) != 1 {
		t.Errorf("len(DownloadHistory) = %d, want 1", len(snap.DownloadHistory))
	}
	if len(snap.PingHistory[target.Key()]) != 1 {
		t.Errorf("len(PingHistory[%q]) = %d, want 1", target.Key(), len(snap.PingHistory[target.Key()]))
	}
}

func TestEngine_StopIdempotent(t *testing.T) {
	eng, err := New(
		WithTargets(testTarget(t)),
		WithProbeURL(testProbeServer(t)),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Stop before Start, then twice in a row, must not panic
	eng.Stop()
	eng.Start()
	eng.Stop()
	eng.Stop()

	if eng.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestEngine_CycleCallback(t *testing.T) {
	target := testTarget(t)

	got := make(chan Results, 1)
	eng, err := New(
		WithTargets(target),
		WithProbeURL(testProbeServer(t)),
		WithLogger(testLogger()),
		WithCycleCallback(nil), // ignored
		WithCycleCallback(func(r Results) { got <- r }),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer eng.Stop()

	eng.MeasureOnce(context.Background())

	select {
	case r := <-got:
		if _, ok := r.Pings[target.Key()]; !ok {
			t.Errorf("callback results missing key %q", target.Key())
		}
	case <-time.After(time.Second):
		t.Fatal("cycle callback was not invoked")
	}
}
