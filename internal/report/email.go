package report

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
)

// Subject is the subject line used for emailed reports.
const Subject = "Time Tracker Report"

// EmailBody renders the plain-text report body.
func EmailBody(sessions []schema.WorkSession, settings schema.UserSettings) string {
	var totalMs int64
	var totalEarnings float64
	for _, s := range sessions {
		totalMs += s.Duration
		totalEarnings += s.Earnings
	}
	totalHours := float64(totalMs) / float64(time.Hour.Milliseconds())

	var b strings.Builder
	b.WriteString(Subject + "\n\n")
	fmt.Fprintf(&b, "Total Working Time: %s (%.2f hours)\n", FormatDurationMs(totalMs), totalHours)
	fmt.Fprintf(&b, "Total Earnings: €%.2f\n", totalEarnings)
	fmt.Fprintf(&b, "Hourly Rate: €%s/hour\n\n", strconv.FormatFloat(settings.HourlyRate, 'f', -1, 64))
	b.WriteString("Sessions:\n")
	for i, s := range sessions {
		name := s.TaskName
		if name == "" {
			name = schema.DefaultTaskName
		}
		duration := FormatDurationMs(s.Duration)
		if s.IsManual {
			duration = "Manual Entry"
		}
		fmt.Fprintf(&b, "%d. %s - %s - €%.2f", i+1, name, duration, s.Earnings)
		if i < len(sessions)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// MailtoLink builds a mailto URL addressed to the configured recipient,
// with body and subject percent-encoded (spaces as %20, not +, so mail
// clients decode them correctly).
func MailtoLink(sessions []schema.WorkSession, settings schema.UserSettings) string {
	subject := escapeMailto(Subject)
	body := escapeMailto(EmailBody(sessions, settings))
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s", settings.UserEmail, subject, body)
}

func escapeMailto(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
