package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

const (
	// downloadChunkSize is the read granularity of the download probe.
	downloadChunkSize = 32 * 1024

	// minElapsed floors the measured read time to keep the derived
	// bytes-per-second finite for very small byte budgets.
	minElapsed = 100 * time.Microsecond

	userAgent = "NetPulse/1.0"
)

// connection pooling limits to prevent resource exhaustion across many cycles
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 2
	defaultIdleConnTimeout     = 60 * time.Second
)

// Throughput is the result of one bounded download probe.
//
// A failed probe is the zero value: Bytes 0 and Elapsed 0. Callers must
// treat Elapsed == 0 as "no sample" and never use it as a divisor;
// [Throughput.BytesPerSecond] already does so.
type Throughput struct {
	// Bytes is the number of body bytes actually read.
	Bytes int64

	// Elapsed is the wall-clock duration of the read phase.
	// Zero indicates the probe failed and produced no sample.
	Elapsed time.Duration
}

// OK reports whether the probe produced a usable sample.
func (t Throughput) OK() bool {
	return t.Elapsed > 0
}

// BytesPerSecond derives the throughput estimate. A failed probe maps to
// exactly 0.0, never negative or NaN.
func (t Throughput) BytesPerSecond() float64 {
	if t.Elapsed <= 0 {
		return 0
	}
	return float64(t.Bytes) / t.Elapsed.Seconds()
}

// Client is an HTTP client wrapper for the download throughput probe.
//
// Timeouts are applied per request via context rather than as a global
// client timeout, and the transport keeps a small connection pool so
// repeated cycles against the same probe URL reuse connections.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a download probe [Client].
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Download issues a GET to url and reads sequentially up to maxBytes or
// until the response body ends, whichever comes first.
//
// Elapsed covers the read phase only: the timer starts after response
// headers arrive, so connection setup and time-to-first-header are
// excluded. This approximates in-flight throughput rather than
// user-perceived throughput.
//
// Download is total: any failure (DNS, connection, timeout, protocol
// error, mid-stream read error) returns the zero [Throughput].
func (c *Client) Download(ctx context.Context, url string, maxBytes int64, timeout time.Duration) Throughput {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Throughput{}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Throughput{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Throughput{}
	}

	var read int64
	buf := make([]byte, downloadChunkSize)
	start := time.Now()
	for read < maxBytes {
		chunk := int64(len(buf))
		if remaining := maxBytes - read; remaining < chunk {
			chunk = remaining
		}

		n, err := resp.Body.Read(buf[:chunk])
		read += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Throughput{}
		}
	}
	elapsed := time.Since(start)

	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	return Throughput{Bytes: read, Elapsed: elapsed}
}

// Close closes idle connections in the client's pool.
//
// Safe to call multiple times; the client remains usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
