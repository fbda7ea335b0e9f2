package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pedalcoach/internal/adaptation"
	"pedalcoach/internal/service"
	"pedalcoach/internal/store"
)

// WeekModel shows the adaptations of one training week
type WeekModel struct {
	coach       *service.CoachService
	weekStart   time.Time
	adaptations []store.WorkoutAdaptation
	summary     adaptation.WeekSummary
	cursor      int
	loading     bool
	detecting   bool
	status      string
	err         error
}

// NewWeekModel creates a week model for the week containing weekOf
func NewWeekModel(coach *service.CoachService, weekOf time.Time) WeekModel {
	return WeekModel{
		coach:     coach,
		weekStart: adaptation.WeekStart(weekOf),
		loading:   true,
	}
}

// Init initializes the week screen
func (m WeekModel) Init() tea.Cmd {
	return m.loadWeek
}

type weekLoadedMsg struct {
	weekStart   time.Time
	adaptations []store.WorkoutAdaptation
	summary     adaptation.WeekSummary
	err         error
}

type weekDetectedMsg struct {
	weekStart time.Time
	detected  int
	err       error
}

// OpenActivityDetailMsg asks the app to show an activity's detail screen
type OpenActivityDetailMsg struct {
	ActivityID string
}

func (m WeekModel) loadWeek() tea.Msg {
	adaptations, err := m.coach.WeekAdaptations(m.weekStart)
	if err != nil {
		return weekLoadedMsg{weekStart: m.weekStart, err: err}
	}
	summary, err := m.coach.WeekSummary(m.weekStart)
	if err != nil {
		return weekLoadedMsg{weekStart: m.weekStart, err: err}
	}
	return weekLoadedMsg{weekStart: m.weekStart, adaptations: adaptations, summary: summary}
}

func (m WeekModel) detectWeek() tea.Msg {
	detected, err := m.coach.DetectWeek(m.weekStart)
	return weekDetectedMsg{weekStart: m.weekStart, detected: len(detected), err: err}
}

// Update handles messages
func (m WeekModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case weekLoadedMsg:
		// Results for a week the user already navigated away from
		if !msg.weekStart.Equal(m.weekStart) {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.adaptations = msg.adaptations
		m.summary = msg.summary
		if m.cursor >= len(m.adaptations) {
			m.cursor = 0
		}

	case weekDetectedMsg:
		m.detecting = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Detection failed: %v", msg.err))
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("Detected %d adaptations", msg.detected))
		if msg.weekStart.Equal(m.weekStart) {
			m.loading = true
			return m, m.loadWeek
		}

	case tea.KeyMsg:
		if m.detecting {
			return m, nil
		}
		switch msg.String() {
		case "left", "h":
			return m.shiftWeek(-1)
		case "right", "l":
			return m.shiftWeek(1)
		case "t":
			m.weekStart = adaptation.WeekStart(m.coach.Now())
			m.cursor = 0
			m.loading = true
			return m, m.loadWeek
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.adaptations)-1 {
				m.cursor++
			}
		case "d":
			m.detecting = true
			m.status = "Detecting adaptations..."
			return m, m.detectWeek
		case "r":
			m.loading = true
			return m, m.loadWeek
		case "enter":
			if m.cursor < len(m.adaptations) && m.adaptations[m.cursor].ActivityID != nil {
				activityID := *m.adaptations[m.cursor].ActivityID
				return m, func() tea.Msg {
					return OpenActivityDetailMsg{ActivityID: activityID}
				}
			}
		}
	}
	return m, nil
}

func (m WeekModel) shiftWeek(weeks int) (tea.Model, tea.Cmd) {
	m.weekStart = m.weekStart.AddDate(0, 0, 7*weeks)
	m.cursor = 0
	m.status = ""
	m.loading = true
	return m, m.loadWeek
}

// View renders the week screen
func (m WeekModel) View() string {
	weekEnd := m.weekStart.AddDate(0, 0, 6)
	title := cardTitleStyle.Render(fmt.Sprintf("Week of %s - %s",
		m.weekStart.Format("Jan 02"), weekEnd.Format("Jan 02, 2006")))

	if m.loading {
		return lipgloss.JoinVertical(lipgloss.Left, title, "  Loading week...")
	}

	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	}

	sections := []string{title, m.renderSummary(), ""}

	if len(m.adaptations) == 0 {
		sections = append(sections, "  No adaptations for this week. Press 'd' to detect.")
	} else {
		sections = append(sections, m.renderTable())
	}

	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, statusStyle.Render("←/→: change week  t: this week  d: detect  enter: ride detail  r: refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m WeekModel) renderSummary() string {
	s := m.summary
	line := fmt.Sprintf("Planned %d  Completed %d  Adapted %d  Skipped %d  Unplanned %d",
		s.TotalPlanned, s.TotalCompleted, s.TotalAdapted, s.TotalSkipped, s.TotalUnplanned)
	tss := fmt.Sprintf("TSS %.0f / %.0f (%s)  Avg stimulus %s",
		s.TSSActual, s.TSSPlanned,
		formatOptional(s.TSSAchievementPct, "%.0f%%"),
		formatOptional(s.AvgStimulusAchievedPct, "%.0f%%"))
	return lipgloss.JoinVertical(lipgloss.Left, "  "+line, "  "+mutedStyle.Render(tss))
}

func (m WeekModel) renderTable() string {
	header := tableHeaderStyle.Render(fmt.Sprintf("   %-10s  %-12s  %7s  %7s  %6s  %6s  %6s  %-12s",
		"Date", "Outcome", "Planned", "Actual", "ΔTSS", "ΔMin", "Pct", "Reason"))

	rows := []string{header}
	for i, a := range m.adaptations {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		reason := "-"
		if a.Reason != nil {
			reason = truncateName(*a.Reason, 12)
		}

		row := fmt.Sprintf("%s%-10s  %-12s  %7s  %7s  %6s  %6s  %6s  %-12s",
			cursor,
			a.WorkoutDate.Format("Mon Jan 02"),
			adaptationLabel(a.AdaptationType),
			formatOptional(a.PlannedTSS, "%.0f"),
			formatOptional(a.ActualTSS, "%.0f"),
			formatSigned(a.TSSDelta),
			formatSigned(a.DurationDelta),
			formatPct(a.StimulusAchievedPct),
			reason,
		)

		if i == m.cursor {
			rows = append(rows, tableSelectedStyle.Render(row))
		} else {
			rows = append(rows, adaptationStyle(a.AdaptationType).Inherit(tableRowStyle).Render(row))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
