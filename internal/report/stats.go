package report

import (
	"sort"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
)

// DefaultStatDays is how many trailing days the stats view shows.
const DefaultStatDays = 7

// DayStat aggregates one calendar day of work.
type DayStat struct {
	Day      time.Time `json:"day"`
	Label    string    `json:"label"`
	Hours    float64   `json:"hours"`
	Earnings float64   `json:"earnings"`
}

// Summary aggregates a whole session sequence.
type Summary struct {
	TotalTime     time.Duration
	TotalEarnings float64
	SessionCount  int
	AvgDailyHours float64
}

// DailyStats groups sessions by the calendar day of their start time
// and returns the trailing `days` buckets in ascending order. Days with
// no sessions produce no bucket.
func DailyStats(sessions []schema.WorkSession, days int) []DayStat {
	if days <= 0 {
		days = DefaultStatDays
	}
	byDay := make(map[time.Time]*DayStat)
	for _, s := range sessions {
		start := s.StartTime
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		stat, ok := byDay[day]
		if !ok {
			stat = &DayStat{Day: day, Label: day.Format("02 Jan")}
			byDay[day] = stat
		}
		stat.Hours += float64(s.Duration) / float64(time.Hour.Milliseconds())
		stat.Earnings += s.Earnings
	}

	out := make([]DayStat, 0, len(byDay))
	for _, stat := range byDay {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	if len(out) > days {
		out = out[len(out)-days:]
	}
	return out
}

// Summarize computes report totals. Average daily hours divides total
// hours by the number of distinct working days, never less than one.
func Summarize(sessions []schema.WorkSession) Summary {
	var totalMs int64
	var earnings float64
	daysSeen := make(map[string]struct{})
	for _, s := range sessions {
		totalMs += s.Duration
		earnings += s.Earnings
		daysSeen[s.StartTime.Format("2006-01-02")] = struct{}{}
	}
	days := len(daysSeen)
	if days < 1 {
		days = 1
	}
	totalHours := float64(totalMs) / float64(time.Hour.Milliseconds())
	return Summary{
		TotalTime:     time.Duration(totalMs) * time.Millisecond,
		TotalEarnings: earnings,
		SessionCount:  len(sessions),
		AvgDailyHours: totalHours / float64(days),
	}
}

// Since filters sessions to those starting at or after the cutoff.
func Since(sessions []schema.WorkSession, cutoff time.Time) []schema.WorkSession {
	if cutoff.IsZero() {
		return sessions
	}
	out := make([]schema.WorkSession, 0, len(sessions))
	for _, s := range sessions {
		if !s.StartTime.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
