// Package countdown turns time-to-step deltas into display strings.
package countdown

import (
	"fmt"
	"math"
	"time"
)

// Placeholder is shown when there is nothing to count down to.
const Placeholder = "--:--"

// Format renders a signed second count as MM:SS, or H:MM:SS once the
// magnitude reaches an hour. Negative values mean "time since due" and get
// a leading minus sign. ok=false renders the placeholder.
func Format(seconds int, ok bool) string {
	if !ok {
		return Placeholder
	}

	sign := ""
	abs := seconds
	if seconds < 0 {
		sign = "-"
		abs = -seconds
	}

	h := abs / 3600
	m := (abs % 3600) / 60
	s := abs % 60

	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, m, s)
}

// Split converts a delta into whole seconds and whole minutes, both
// floored toward negative infinity. A delta of -1ms is second -1 and
// minute -1.
func Split(delta time.Duration) (minutes, seconds int) {
	ms := delta.Milliseconds()
	seconds = int(math.Floor(float64(ms) / 1000))
	minutes = int(math.Floor(float64(seconds) / 60))
	return minutes, seconds
}

// Distance renders a minute count as a short human phrase: "in 5 min",
// "in 2h 5min", "now!", "12 min ago". ok=false renders "no data".
func Distance(minutes int, ok bool) string {
	if !ok {
		return "no data"
	}

	if minutes < 0 {
		abs := -minutes
		if abs < 60 {
			return fmt.Sprintf("%d min ago", abs)
		}
		return fmt.Sprintf("%dh %dmin ago", abs/60, abs%60)
	}

	if minutes == 0 {
		return "now!"
	}

	if minutes < 60 {
		return fmt.Sprintf("in %d min", minutes)
	}

	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("in %dh", hours)
	}
	return fmt.Sprintf("in %dh %dmin", hours, rest)
}
