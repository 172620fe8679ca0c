// Package timefmt formats second offsets as human readable timestamps.
package timefmt

import "fmt"

// Timestamp formats a second offset as MM:SS.mmm, or HH:MM:SS.mmm once the
// offset reaches an hour. Negative offsets are clamped to zero.
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600) - float64(m*60)
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
	}
	return fmt.Sprintf("%02d:%06.3f", m, s)
}

// Span formats a start/end pair as a single "start-end" range.
func Span(start, end float64) string {
	return Timestamp(start) + "-" + Timestamp(end)
}
