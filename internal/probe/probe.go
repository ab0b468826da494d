// Package probe implements the two network measurements NetPulse runs:
// a TCP-connect latency check and a bounded download throughput read.
//
// Probe functions are total: for any input they terminate within roughly
// the provided timeout and return a well-formed result or an explicit
// failure marker. They never panic and never propagate an error to the
// caller as anything other than a marked result.
package probe

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// FailReason classifies why a latency probe produced no sample.
type FailReason string

const (
	FailNone        FailReason = ""
	FailTimeout     FailReason = "timeout"
	FailRefused     FailReason = "refused"
	FailDNS         FailReason = "dns"
	FailUnreachable FailReason = "unreachable"
	FailOther       FailReason = "other"
)

// Latency is the result of one TCP-connect latency probe.
//
// When OK is true, Ms holds the connect time in milliseconds and is
// always finite and non-negative. When OK is false, Ms is zero and
// Reason records the failure class; the distinction between "0 ms" and
// "no sample" is preserved here, not in the trend buffers.
type Latency struct {
	// Ms is the connect time in milliseconds. Zero when the probe failed.
	Ms float64

	// OK reports whether a connection was established.
	OK bool

	// Reason classifies the failure when OK is false.
	Reason FailReason
}

// PingTCP measures the wall-clock time to establish a TCP connection to
// host:port, in milliseconds.
//
// Any failure (DNS resolution, connection refused, timeout, unreachable
// network) is returned as a marked [Latency] rather than an error. The
// connection is closed immediately after establishment.
func PingTCP(ctx context.Context, host string, port int, timeout time.Duration) Latency {
	dialer := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Latency{Reason: classifyDialError(err)}
	}
	elapsed := time.Since(start)
	_ = conn.Close()

	ms := float64(elapsed) / float64(time.Millisecond)
	if ms < 0 {
		// clock adjustment mid-probe; report an empty but valid sample
		ms = 0
	}
	return Latency{Ms: ms, OK: true}
}

// classifyDialError maps a dial error to a [FailReason].
func classifyDialError(err error) FailReason {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return FailRefused
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return FailUnreachable
	case errors.Is(err, context.DeadlineExceeded):
		return FailTimeout
	}
	return FailOther
}
