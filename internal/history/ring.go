// Package history provides fixed-capacity rolling sample buffers for
// trend display.
//
// A [Ring] keeps the most recent N numeric samples in insertion order,
// evicting the oldest sample once capacity is reached. Rings are plain
// data structures with no locking of their own; the sampler guards them
// under its mutation boundary.
package history

// DefaultCapacity is the number of samples a trend buffer retains.
// 120 samples at a 2 second cadence covers roughly the last four minutes.
const DefaultCapacity = 120

// Ring is a fixed-capacity FIFO buffer of float64 samples.
//
// Appending beyond capacity evicts the oldest sample. Samples are never
// reordered; insertion order is temporal order.
type Ring struct {
	buf   []float64
	head  int // index of the oldest sample
	count int
}

// NewRing creates a [Ring] with the given capacity.
// Capacities below 1 are raised to 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Append adds a sample, evicting the oldest if the ring is full.
func (r *Ring) Append(v float64) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of samples currently held.
func (r *Ring) Len() int {
	return r.count
}

// Cap returns the ring's fixed capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Values returns the samples oldest-first as a fresh slice.
//
// The returned slice does not alias the ring's storage; callers may
// mutate it freely.
func (r *Ring) Values() []float64 {
	out := make([]float64, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Last returns the most recently appended sample.
// The second return value is false if the ring is empty.
func (r *Ring) Last() (float64, bool) {
	if r.count == 0 {
		return 0, false
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)], true
}
