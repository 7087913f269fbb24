package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"honquedoro/internal/localstore"
	"honquedoro/internal/model"
	"honquedoro/internal/timer"
)

var (
	colorWork    = lipgloss.Color("#FF6B6B")
	colorBreak   = lipgloss.Color("#2EC4B6")
	colorMuted   = lipgloss.Color("#666666")
	colorSuccess = lipgloss.Color("#2ECC71")
	colorWarning = lipgloss.Color("#F39C12")
	colorError   = lipgloss.Color("#E74C3C")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

var modeLabels = map[timer.Mode]string{
	timer.ModeWork:       "WORK",
	timer.ModeShortBreak: "SHORT BREAK",
	timer.ModeLongBreak:  "LONG BREAK",
}

func modeStyle(m timer.Mode) lipgloss.Style {
	if m.IsBreak() {
		return lipgloss.NewStyle().Bold(true).Foreground(colorBreak)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorWork)
}

// formatClock renders seconds as MM:SS.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func progressBar(current, full, width int) string {
	if full <= 0 || width <= 0 {
		return ""
	}
	done := (full - current) * width / full
	if done < 0 {
		done = 0
	}
	if done > width {
		done = width
	}
	return strings.Repeat("█", done) + strings.Repeat("░", width-done)
}

func syncLabel(s timer.State) string {
	if s.Synced() {
		return successStyle.Render("● synced")
	}
	return warningStyle.Render("○ local-only")
}

// renderStatusLine is the single line redrawn while the timer runs.
func renderStatusLine(s timer.State, cfg timer.Config, task string) string {
	status := s.Status.String()
	switch s.Status {
	case timer.StatusRunning:
		status = successStyle.Render(status)
	case timer.StatusPaused:
		status = warningStyle.Render(status)
	default:
		status = mutedStyle.Render(status)
	}

	parts := []string{
		modeStyle(s.Mode).Render(modeLabels[s.Mode]),
		titleStyle.Render(formatClock(s.CurrentTime)),
		progressBar(s.CurrentTime, cfg.FullSeconds(s.Mode), 20),
		status,
		mutedStyle.Render(fmt.Sprintf("#%d", s.CompletedWorkSessions)),
		syncLabel(s),
	}
	if task != "" {
		parts = append(parts, mutedStyle.Render("task: ")+task)
	}
	return strings.Join(parts, "  ")
}

func completionMessage(c timer.Completion) string {
	var b strings.Builder
	switch c.Mode {
	case timer.ModeWork:
		b.WriteString("Work session complete!")
	default:
		b.WriteString("Break is over!")
	}
	switch c.Next {
	case timer.ModeShortBreak:
		b.WriteString(" Time for a short break.")
	case timer.ModeLongBreak:
		b.WriteString(" Time for a long break.")
	default:
		b.WriteString(" Back to work.")
	}
	if c.Skipped {
		b.WriteString(" (skipped)")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderTask(t localstore.Task, current bool) string {
	check := "[ ]"
	if t.Completed {
		check = successStyle.Render("[x]")
	}
	marker := " "
	if current {
		marker = modeStyle(timer.ModeWork).Render(">")
	}
	pin := ""
	if t.Pinned {
		pin = " *"
	}
	title := t.Title
	if t.Completed {
		title = mutedStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s %s %s%s  %s  %d/%d",
		marker, mutedStyle.Render(shortID(t.ID)), check, title, pin,
		priorityLabel(t.Priority), t.CompletedPomodoros, t.EstimatedPomodoros)
	if t.Category != "" {
		line += mutedStyle.Render("  #" + t.Category)
	}
	return line
}

func priorityLabel(p localstore.Priority) string {
	switch p {
	case localstore.PriorityHigh:
		return errorStyle.Render("high")
	case localstore.PriorityMedium:
		return warningStyle.Render("medium")
	default:
		return mutedStyle.Render("low")
	}
}

func renderStatistics(page *model.StatisticsPage) string {
	o := page.OverallStats
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Overall"))
	fmt.Fprintf(&b, "Sessions        %d\n", o.TotalSessions)
	fmt.Fprintf(&b, "Focus time      %s\n", o.TotalFocusTimeFormatted)
	fmt.Fprintf(&b, "Per day         %.1f\n", o.AverageSessionsPerDay)
	fmt.Fprintf(&b, "Current streak  %d\n", o.CurrentStreak)
	fmt.Fprintf(&b, "Longest streak  %d\n", o.LongestStreak)

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render("This week"))
	for _, day := range page.WeeklyData {
		fmt.Fprintf(&b, "%-4s %s %d\n", day.Day, chartBar(day.Sessions, page.MaxSessions, 20), day.Sessions)
	}

	fmt.Fprintf(&b, "\n%s %s\n", titleStyle.Render("Achievements"),
		mutedStyle.Render(fmt.Sprintf("%d/%d", page.EarnedAchievements, len(page.Achievements))))
	for _, a := range page.Achievements {
		mark := mutedStyle.Render("·")
		if a.Earned {
			mark = successStyle.Render("✓")
		}
		fmt.Fprintf(&b, "%s %s  %s\n", mark, a.Title, mutedStyle.Render(a.Description))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderSummary(s localstore.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Local history"), warningStyle.Render("(local-only)"))
	fmt.Fprintf(&b, "Today           %d sessions, %dm (%.0f%% of %d)\n",
		s.TodaySessions, s.TodayFocusMinutes, s.DailyProgress, s.DailyGoal)
	fmt.Fprintf(&b, "This week       %d sessions, %dm\n", s.WeekSessions, s.WeekFocusMinutes)
	fmt.Fprintf(&b, "This month      %d sessions, %dm\n", s.MonthSessions, s.MonthFocusMinutes)
	fmt.Fprintf(&b, "All time        %d sessions\n", s.TotalSessions)
	fmt.Fprintf(&b, "Current streak  %d\n", s.CurrentStreak)

	maxSessions := 0
	for _, day := range s.Week {
		maxSessions = max(maxSessions, day.Sessions)
	}
	b.WriteString("\n")
	for _, day := range s.Week {
		fmt.Fprintf(&b, "%-4s %s %d\n", day.Day.Format("Mon"), chartBar(day.Sessions, maxSessions, 20), day.Sessions)
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func chartBar(value, maxValue, width int) string {
	if maxValue <= 0 {
		return strings.Repeat(" ", width)
	}
	n := value * width / maxValue
	return modeStyle(timer.ModeWork).Render(strings.Repeat("▇", n)) + strings.Repeat(" ", width-n)
}

func renderSettings(s localstore.AppSettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "work                %dm\n", s.WorkDuration)
	fmt.Fprintf(&b, "short-break         %dm\n", s.ShortBreakDuration)
	fmt.Fprintf(&b, "long-break          %dm\n", s.LongBreakDuration)
	fmt.Fprintf(&b, "cadence             %d\n", s.SessionsUntilLongBreak)
	fmt.Fprintf(&b, "auto-start-breaks   %t\n", s.AutoStartBreaks)
	fmt.Fprintf(&b, "auto-start-work     %t\n", s.AutoStartPomodoros)
	fmt.Fprintf(&b, "sound               %t\n", s.SoundEnabled)
	fmt.Fprintf(&b, "notifications       %t\n", s.DesktopNotifications)
	fmt.Fprintf(&b, "dark-mode           %t\n", s.DarkMode)
	fmt.Fprintf(&b, "daily-goal          %d", s.DailyGoal)
	return b.String()
}
