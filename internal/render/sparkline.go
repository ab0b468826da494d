package render

import "strings"

// sparkChars are the eight block glyphs used for trend lines, lowest to
// highest.
var sparkChars = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values as a block-character trend
// line, scaled to the window maximum and left-padded with spaces.
//
// An empty input yields width spaces so the layout stays stable before
// the first cycle completes.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}

	if len(values) > width {
		values = values[len(values)-width:]
	}

	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		max = 1.0
	}

	var b strings.Builder
	b.Grow(width)
	if pad := width - len(values); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	for _, v := range values {
		if v < 0 {
			v = 0
		}
		idx := int((v / max) * float64(len(sparkChars)-1))
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}
