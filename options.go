package netpulse

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// engineConfig holds mutable state during Engine construction.
type engineConfig struct {
	targets        []Target
	probeURL       string
	byteBudget     int64
	interval       time.Duration
	maxConcurrency int
	logger         *slog.Logger
	clock          clockwork.Clock
	cycleCallbacks []func(Results)
}

// Option configures an [Engine] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithTargets], [WithProbeURL], [WithByteBudget],
// [WithInterval], [WithMaxConcurrency], [WithLogger], [WithClock],
// [WithCycleCallback].
type Option func(*engineConfig) error

// WithTargets adds targets to the engine's fixed target set.
//
// Can be called multiple times; targets accumulate. At least one target
// must be configured for [New] to succeed, and target keys must be
// unique.
//
// Example:
//
//	eng, err := netpulse.New(
//	    netpulse.WithTargets(
//	        netpulse.Target{Host: "8.8.8.8", Port: 53},
//	        netpulse.Target{Host: "1.1.1.1", Port: 53},
//	    ),
//	)
func WithTargets(targets ...Target) Option {
	return func(cfg *engineConfig) error {
		cfg.targets = append(cfg.targets, targets...)
		return nil
	}
}

// WithProbeURL sets the URL the download throughput probe reads from.
// Defaults to [DefaultProbeURL].
//
// Returns an error if the URL is empty.
func WithProbeURL(url string) Option {
	return func(cfg *engineConfig) error {
		if url == "" {
			return errors.New("probe URL cannot be empty")
		}
		cfg.probeURL = url
		return nil
	}
}

// WithByteBudget sets the maximum number of bytes read per download
// probe. Defaults to [DefaultByteBudget] (256 KiB).
//
// A larger budget gives a steadier throughput estimate at the cost of
// more traffic per cycle. Non-positive budgets are rejected by [New].
func WithByteBudget(n int64) Option {
	return func(cfg *engineConfig) error {
		cfg.byteBudget = n
		return nil
	}
}

// WithInterval sets the sampling cadence. Defaults to [DefaultInterval].
// Values below [MinInterval] are clamped to it; the clamp is documented
// behavior, not an error.
//
// Returns an error only for zero or negative durations.
func WithInterval(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithMaxConcurrency limits how many latency probes run at once within a
// cycle. Defaults to 8.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *engineConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the engine. If not
// specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *engineConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock sets the engine's time source. The default is the real
// clock; tests inject a fake to drive the sampling loop
// deterministically.
//
// Returns an error if the clock is nil.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *engineConfig) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = clock
		return nil
	}
}

// WithCycleCallback registers a function invoked after every completed
// measurement cycle with that cycle's [Results].
//
// Multiple callbacks may be registered; they execute in registration
// order on the sampling goroutine. Callbacks must not block: a slow
// callback delays the next cycle. Panics within callbacks are recovered
// and logged; they do not kill the sampling loop.
//
// Nil callbacks are silently ignored.
func WithCycleCallback(cb func(Results)) Option {
	return func(cfg *engineConfig) error {
		if cb == nil {
			return nil
		}
		cfg.cycleCallbacks = append(cfg.cycleCallbacks, cb)
		return nil
	}
}
