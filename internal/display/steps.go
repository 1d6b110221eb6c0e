package display

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hammamikhairi/pizzatimer/internal/countdown"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

var (
	stepDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac"))
	stepEarlyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#67e8f9"))
	stepLateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fdba74"))
	stepSkippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")).Strikethrough(true)
	stepActiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#fde68a")).Bold(true)
	stepPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4d4d8"))
)

// stepMark returns the glyph and style for a step status.
func stepMark(s domain.StepStatus) (string, lipgloss.Style) {
	switch s {
	case domain.StepCompleted:
		return "✓", stepDoneStyle
	case domain.StepCompletedEarly:
		return "✓", stepEarlyStyle
	case domain.StepCompletedLate:
		return "✓", stepLateStyle
	case domain.StepSkipped:
		return "–", stepSkippedStyle
	case domain.StepInProgress:
		return "▶", stepActiveStyle
	case domain.StepPending:
		return "·", stepPendingStyle
	case domain.StepUnknown:
		return "?", secondaryStyle
	default:
		return "?", secondaryStyle
	}
}

// StepLines renders the session's steps, one styled line each, with the
// scheduled clock time and the distance from now.
func StepLines(sess *domain.ActiveSession, now time.Time) []string {
	steps := sess.SortedSteps()
	lines := make([]string, 0, len(steps))
	next := sess.NextStep()
	for _, st := range steps {
		mark, style := stepMark(st.Status)
		if next != nil && st.StepNumber == next.StepNumber && st.Status == domain.StepPending {
			mark, style = "›", stepActiveStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %2d. %-28s %s", mark, st.StepNumber, st.Title, when(st, now))))
	}
	return lines
}

func when(st domain.ScheduledStep, now time.Time) string {
	if st.ScheduledTime == nil {
		return "unscheduled"
	}
	clock := st.ScheduledTime.In(time.Local).Format("15:04")
	if st.Status.IsTerminal() {
		return clock
	}
	minutes, _ := countdown.Split(st.ScheduledTime.Sub(now))
	return clock + "  (" + countdown.Distance(minutes, true) + ")"
}

var stepHeader = table.Row{
	"#",
	"Step",
	"Scheduled",
	"Done At",
	"Status",
	"Duration",
}

// RenderStepTable renders a session's schedule as a plain table.
func RenderStepTable(sess *domain.ActiveSession) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s (%s, %.0f%% done)", sess.Name, statusLabel(sess.Status), sess.CompletionPercentage))
	t.AppendHeader(stepHeader)
	for _, st := range sess.SortedSteps() {
		dur := ""
		if st.DurationMinutes > 0 {
			dur = fmt.Sprintf("%d min", st.DurationMinutes)
		}
		t.AppendRow(table.Row{
			st.StepNumber,
			st.Title,
			clockOf(st.ScheduledTime),
			clockOf(st.ActualTime),
			st.Status.String(),
			dur,
		})
	}
	return t.Render()
}

var historyHeader = table.Row{
	"ID",
	"Name",
	"Style",
	"Pizzas",
	"Bake Time",
	"Status",
	"Done",
}

// RenderHistoryTable renders a list of sessions, newest first as given.
func RenderHistoryTable(sessions []domain.ActiveSession) string {
	t := table.NewWriter()
	t.AppendHeader(historyHeader)
	for _, s := range sessions {
		bake := s.AdjustedBakeTime
		if bake == nil {
			bake = s.TargetBakeTime
		}
		style := s.PizzaStyleName
		if style == "" {
			style = s.PizzaStyle
		}
		t.AppendRow(table.Row{
			s.ID,
			s.Name,
			style,
			s.NumberOfPizzas,
			dateOf(bake),
			statusLabel(s.Status),
			fmt.Sprintf("%.0f%%", s.CompletionPercentage),
		})
	}
	return t.Render()
}

func clockOf(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(time.Local).Format("15:04")
}

func dateOf(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(time.Local).Format("Mon 02 Jan 15:04")
}
