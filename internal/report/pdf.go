package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/boudmaker/oclock/internal/schema"
)

// DefaultPDFName returns the conventional export file name for a report
// generated on the given day.
func DefaultPDFName(now time.Time) string {
	return fmt.Sprintf("time-tracker-report-%s.pdf", now.Format("2006-01-02"))
}

// WritePDF renders the session report to a PDF file at path.
func WritePDF(path string, sessions []schema.WorkSession, settings schema.UserSettings) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(12, func() {
			m.Col(12, func() {
				m.Text(Subject, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
	})

	summary := Summarize(sessions)
	summaryLines := []string{
		fmt.Sprintf("Total Working Time: %s (%.2f hours)", FormatDuration(summary.TotalTime), summary.TotalTime.Hours()),
		fmt.Sprintf("Total Earnings: €%.2f", summary.TotalEarnings),
		fmt.Sprintf("Hourly Rate: €%.2f/hour", settings.HourlyRate),
	}
	for _, line := range summaryLines {
		text := line
		m.Row(7, func() {
			m.Col(12, func() {
				m.Text(text, props.Text{Size: 12})
			})
		})
	}

	m.Row(10, func() {
		m.Col(12, func() {
			m.Text("Work Sessions:", props.Text{
				Top:   4,
				Style: consts.Bold,
				Size:  14,
			})
		})
	})

	headers := []string{"Date", "Task", "Duration", "Earnings"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		name := s.TaskName
		if name == "" {
			name = schema.DefaultTaskName
		}
		date := FormatTimestamp(s.StartTime)
		duration := FormatDurationMs(s.Duration)
		if s.IsManual {
			date = ""
			duration = "Manual Entry"
		}
		rows = append(rows, []string{
			date,
			name,
			duration,
			fmt.Sprintf("€%.2f", s.Earnings),
		})
	}

	m.TableList(headers, rows, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      10,
			GridSizes: []uint{4, 4, 2, 2},
		},
		ContentProp: props.TableListContent{
			Size:      10,
			GridSizes: []uint{4, 4, 2, 2},
		},
		Align:                consts.Left,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	})

	return m.OutputFileAndClose(path)
}
