package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPingTCP_Success(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	lat := PingTCP(context.Background(), "127.0.0.1", port, time.Second)

	require.True(t, lat.OK)
	require.GreaterOrEqual(t, lat.Ms, 0.0)
	require.Equal(t, FailNone, lat.Reason)
}

func TestPingTCP_ConnectionRefused(t *testing.T) {
	// grab a port that is guaranteed closed by listening and closing it
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	lat := PingTCP(context.Background(), "127.0.0.1", port, time.Second)

	require.False(t, lat.OK)
	require.Zero(t, lat.Ms)
	require.Equal(t, FailRefused, lat.Reason)
}

func TestPingTCP_DNSFailure(t *testing.T) {
	lat := PingTCP(context.Background(), "host.invalid", 80, time.Second)

	require.False(t, lat.OK)
	require.Zero(t, lat.Ms)
	require.Equal(t, FailDNS, lat.Reason)
}

func TestPingTCP_Timeout(t *testing.T) {
	// 192.0.2.0/24 is TEST-NET-1, guaranteed non-routable
	start := time.Now()
	lat := PingTCP(context.Background(), "192.0.2.1", 81, 100*time.Millisecond)
	elapsed := time.Since(start)

	require.False(t, lat.OK)
	require.Zero(t, lat.Ms)
	require.Less(t, elapsed, 5*time.Second, "probe must terminate near its timeout bound")
}
