package netpulse

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultTargetPort is used when a target spec omits the port.
const defaultTargetPort = 80

// Target is a host/port pair whose TCP-connect latency is tracked.
//
// Target is an immutable value type. The target set is fixed once an
// [Engine] is constructed; there is no way to add or remove targets from
// a running engine.
type Target struct {
	// Host is a hostname or IP address.
	Host string

	// Port is the TCP port to connect to (0-65535).
	Port int
}

// Key returns the target's canonical "host:port" identity. This is the
// key used in [Results.Pings] and [Snapshot.PingHistory].
func (t Target) Key() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// String implements fmt.Stringer.
func (t Target) String() string {
	return t.Key()
}

// validate checks that the target is well-formed.
func (t Target) validate() error {
	if t.Host == "" {
		return fmt.Errorf("target host cannot be empty")
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target %q: port must be between 0 and 65535, got %d", t.Host, t.Port)
	}
	return nil
}

// ParseTargets parses a comma-separated list of "host:port" specs.
//
// The port may be omitted, in which case it defaults to 80. Empty
// elements are skipped, so trailing commas are harmless.
//
//	targets, err := netpulse.ParseTargets("8.8.8.8:53,google.com")
//	// → [{8.8.8.8 53} {google.com 80}]
//
// Returns an error if a port is present but not a valid integer in
// 0-65535.
func ParseTargets(s string) ([]Target, error) {
	var targets []Target
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		host, portStr, ok := splitHostPort(part)
		if !ok {
			targets = append(targets, Target{Host: part, Port: defaultTargetPort})
			continue
		}

		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("target %q: invalid port %q", part, portStr)
		}

		t := Target{Host: host, Port: port}
		if err := t.validate(); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// splitHostPort splits on the last colon, so bare hostnames and IPv4
// addresses pass through unchanged.
func splitHostPort(s string) (host, port string, ok bool) {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

// DefaultTargets returns the built-in target set used when no targets
// are configured: the Google and Cloudflare public DNS resolvers plus
// google.com on port 80.
func DefaultTargets() []Target {
	return []Target{
		{Host: "8.8.8.8", Port: 53},
		{Host: "1.1.1.1", Port: 53},
		{Host: "google.com", Port: 80},
	}
}
