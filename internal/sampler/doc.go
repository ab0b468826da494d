// Package sampler runs the NetPulse measurement engine.
//
// This package is internal to NetPulse and owns the concurrent sampling
// loop, the bounded rolling histories, and the snapshot contract between
// the measurement side and any number of readers.
//
// The main components are:
//
//   - [Sampler]: Runs probe cycles on a fixed cadence and keeps history
//   - [Config]: Validated construction parameters for a Sampler
//   - [Results]: Outcome of the most recently completed cycle
//   - [Snapshot]: Atomic, caller-owned copy of the sampler's state
//
// All measurement state sits behind a single mutex; probe I/O happens
// outside it, so a hanging probe never blocks a concurrent Snapshot for
// longer than the copy cost.
//
// Users of the netpulse library should not need to interact with this
// package directly. Configuration is done through the main netpulse
// package.
package sampler
