// Package render draws the NetPulse terminal UI: an ANSI-colored frame
// with the latest download estimate, a per-target latency table, and
// sparkline trend lines fed from the engine's rolling histories.
//
// The renderer is a pure consumer of [netpulse.Snapshot] values; it
// holds no state of its own beyond the spinner index the caller passes
// in, and never touches the engine's internals.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/kbaror/netpulse"
)

// ANSI escape sequences.
const (
	csi   = "\x1b["
	reset = csi + "0m"

	Bold   = csi + "1m"
	Dim    = csi + "2m"
	Cyan   = csi + "36m"
	Blue   = csi + "34m"
	Green  = csi + "32m"
	Yellow = csi + "33m"
	Red    = csi + "31m"

	// clearSeq clears the screen and homes the cursor.
	clearSeq = "\x1b[2J\x1b[H"
)

const (
	frameWidth         = 72
	downloadTrendWidth = 48
	pingTrendWidth     = 30
)

var spinnerFrames = [...]string{"|", "/", "-", "\\"}

// Colorize wraps s in the given ANSI attribute sequence.
func Colorize(s, attr string) string {
	return attr + s + reset
}

// ClearScreen clears the terminal and homes the cursor.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, clearSeq)
}

// HumanMbps converts a bytes-per-second rate to a megabits-per-second
// string, e.g. "12.34 Mbps".
func HumanMbps(bps float64) string {
	mbps := (bps * 8) / 1_000_000
	return fmt.Sprintf("%.2f Mbps", mbps)
}

// Meta carries the static engine configuration shown in the frame footer.
type Meta struct {
	ProbeURL   string
	Interval   time.Duration
	ByteBudget int64
}

// Frame writes one full terminal frame for the given snapshot.
//
// spin selects the spinner glyph; the caller increments it per frame.
func Frame(w io.Writer, snap netpulse.Snapshot, meta Meta, spin int) {
	rule := Colorize(strings.Repeat("─", frameWidth), Dim)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w,
		Colorize("NetPulse — Live Network Monitor", Bold+Cyan),
		"   ",
		Colorize(time.Now().Format("2006-01-02 15:04:05"), Dim),
	)
	fmt.Fprintln(w, Colorize("Go • Lightweight • Press Ctrl+C to exit", Dim))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if snap.HasResults {
		fmt.Fprintf(w, "%s %s (%d bytes in %.2fs)\n",
			Colorize("Download:", Blue),
			Colorize(HumanMbps(snap.Last.DownloadBps), Bold+Green),
			snap.Last.Bytes,
			snap.Last.Elapsed.Seconds(),
		)
	} else {
		fmt.Fprintf(w, "%s %s\n", Colorize("Download:", Blue), "n/a")
	}
	fmt.Fprintf(w, "%s %s\n", Colorize("History:", Dim), Sparkline(snap.DownloadHistory, downloadTrendWidth))
	fmt.Fprintln(w)

	if snap.HasResults {
		pingTable(w, snap)
	} else {
		fmt.Fprintln(w, "No results yet...")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Colorize("Probe URL:", Dim), meta.ProbeURL)
	fmt.Fprintf(w, "%s %s    %s %d\n",
		Colorize("Update interval:", Dim), meta.Interval,
		Colorize("Bytes/read per probe:", Dim), meta.ByteBudget,
	)
	fmt.Fprintln(w, rule)
	if spin < 0 {
		spin = -spin
	}
	fmt.Fprintln(w, Colorize(
		Colorize(spinnerFrames[spin%len(spinnerFrames)], Cyan)+" Running... (Ctrl+C to stop)",
		Dim,
	))
}

// pingTable renders the per-target latency table with trend sparklines.
func pingTable(w io.Writer, snap netpulse.Snapshot) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Host:Port", "Ping (ms)", "Trend"})

	for _, key := range sortedKeys(snap.Last.Pings) {
		table.Append([]string{
			Colorize(key, Cyan),
			Colorize(FormatLatency(snap.Last.Pings[key]), Yellow),
			Sparkline(snap.PingHistory[key], pingTrendWidth),
		})
	}
	table.Render()
}

// FormatLatency renders a latency sample for display: "12.3 ms" for a
// successful probe, "timeout" for a failure marker.
func FormatLatency(sample netpulse.LatencySample) string {
	if !sample.OK {
		return "timeout"
	}
	return fmt.Sprintf("%.1f ms", sample.Ms)
}

// Summary writes the shutdown summary printed after the monitor stops.
func Summary(w io.Writer, snap netpulse.Snapshot) {
	fmt.Fprintln(w, Colorize(strings.Repeat("─", 60), Dim))
	fmt.Fprintln(w, Colorize("NetPulse Stopped.", Bold+Cyan))
	fmt.Fprintln(w, Colorize("Summary snapshot:", Dim))

	if !snap.HasResults {
		fmt.Fprintln(w, "No measurements completed.")
		return
	}

	fmt.Fprintln(w, Colorize(
		fmt.Sprintf("Last download: %s (%d bytes in %.2fs)",
			HumanMbps(snap.Last.DownloadBps), snap.Last.Bytes, snap.Last.Elapsed.Seconds()),
		Green,
	))
	for _, key := range sortedKeys(snap.Last.Pings) {
		fmt.Fprintf(w, "  %-20s %s\n", key, FormatLatency(snap.Last.Pings[key]))
	}
}

func sortedKeys(pings map[string]netpulse.LatencySample) []string {
	keys := make([]string, 0, len(pings))
	for key := range pings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
