// Package report renders work-session reports: plain-text email bodies
// with mailto links, PDF exports, and per-day statistics.
package report

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as HH:MM:SS, with a leading minus
// for deductions.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// FormatDurationMs renders a millisecond count as HH:MM:SS.
func FormatDurationMs(ms int64) string {
	return FormatDuration(time.Duration(ms) * time.Millisecond)
}

// FormatTimestamp renders a session timestamp for display, e.g.
// "05 Mar 2025 14:30".
func FormatTimestamp(t time.Time) string {
	return t.Format("02 Jan 2006 15:04")
}
