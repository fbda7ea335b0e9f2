package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"pedalcoach/internal/service"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	coach   *service.CoachService
	data    *service.DashboardData
	loading bool
	err     error
	width   int
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(coach *service.CoachService, width int) DashboardModel {
	return DashboardModel{
		coach:   coach,
		loading: true,
		width:   width,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.coach.GetDashboardData()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	return dashboardDataMsg{data: data}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitnessCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if len(m.data.LoadHistory) > 2 {
		sections = append(sections, m.renderLoadChart())
	}

	if len(m.data.EFHistory) > 2 {
		sections = append(sections, m.renderEFChart())
	}

	sections = append(sections, m.renderRecentAdaptations())

	help := statusStyle.Render("Press 'r' to refresh, '2' for the week view, 'd' there to detect adaptations")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFitnessCard() string {
	title := cardTitleStyle.Render("Current Fitness")
	cur := m.data.Current

	ef := "-"
	if m.data.CurrentEF > 0 {
		ef = fmt.Sprintf("%.2f", m.data.CurrentEF)
	}

	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", cur.CTL), ""),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", cur.ATL), ""),
		lipgloss.JoinHorizontal(lipgloss.Left,
			metricLabelStyle.Render("Form (TSB)"),
			formStyle(cur.TSB).Bold(true).Render(fmt.Sprintf("%+.0f", cur.TSB)),
		),
		RenderMetric("Efficiency Factor", ef, m.data.EFTrend),
		RenderMetric("Rides logged", fmt.Sprintf("%d", m.data.TotalRides), ""),
		"",
		mutedStyle.Render(m.data.FormDescription),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	heading := fmt.Sprintf("Week of %s", m.data.WeekStart.Format("Jan 02"))
	if m.data.WeekNumber > 0 {
		heading = fmt.Sprintf("Week %d · %s", m.data.WeekNumber, m.data.Phase)
	}
	title := cardTitleStyle.Render(heading)
	w := m.data.Week

	achieved := 0.0
	if w.TSSAchievementPct != nil {
		achieved = *w.TSSAchievementPct / 100
	}

	lines := []string{
		RenderMetric("Planned", fmt.Sprintf("%d", w.TotalPlanned), ""),
		RenderMetric("Completed", fmt.Sprintf("%d", w.TotalCompleted), ""),
		RenderMetric("Adapted", fmt.Sprintf("%d", w.TotalAdapted), ""),
		RenderMetric("Skipped", fmt.Sprintf("%d", w.TotalSkipped), ""),
		RenderMetric("Unplanned", fmt.Sprintf("%d", w.TotalUnplanned), ""),
		RenderMetric("TSS", fmt.Sprintf("%.0f / %.0f", w.TSSActual, w.TSSPlanned), ""),
		RenderProgressBar(achieved, 24) + " " + formatOptional(w.TSSAchievementPct, "%.0f%%"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) chartWidth() int {
	if m.width > 20 {
		return m.width - 20
	}
	return 60
}

func (m DashboardModel) renderLoadChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Training Load - last %d days", len(m.data.LoadHistory)))

	ctl := make([]float64, len(m.data.LoadHistory))
	atl := make([]float64, len(m.data.LoadHistory))
	tsb := make([]float64, len(m.data.LoadHistory))
	for i, s := range m.data.LoadHistory {
		ctl[i] = s.CTL
		atl[i] = s.ATL
		tsb[i] = s.TSB
	}

	graph := asciigraph.PlotMany([][]float64{ctl, atl, tsb},
		asciigraph.Height(10),
		asciigraph.Width(m.chartWidth()),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red, asciigraph.Green),
	)
	legend := lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render("■ CTL  "),
		lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("■ ATL  "),
		lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("■ TSB"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph, "", legend))
}

func (m DashboardModel) renderEFChart() string {
	title := cardTitleStyle.Render("Efficiency Factor - Recent Trend")

	graph := asciigraph.Plot(m.data.EFHistory,
		asciigraph.Height(8),
		asciigraph.Width(m.chartWidth()),
		asciigraph.Precision(2),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentAdaptations() string {
	title := cardTitleStyle.Render("Recent Adaptations")

	if len(m.data.RecentAdaptations) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No adaptations detected yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-12s  %7s  %7s  %6s  %-10s",
		"Date", "Outcome", "Planned", "Actual", "Pct", "Phase"))

	rows := []string{header}
	for i, a := range m.data.RecentAdaptations {
		if i >= 5 {
			break
		}

		outcome := adaptationStyle(a.AdaptationType).Render(fmt.Sprintf("%-12s", adaptationLabel(a.AdaptationType)))
		row := tableRowStyle.Render(fmt.Sprintf("%-10s  %s  %7s  %7s  %6s  %-10s",
			a.WorkoutDate.Format("Mon Jan 02"),
			outcome,
			formatOptional(a.PlannedTSS, "%.0f"),
			formatOptional(a.ActualTSS, "%.0f"),
			formatPct(a.StimulusAchievedPct),
			truncateName(a.TrainingPhase, 10),
		))
		rows = append(rows, row)
	}

	if p := m.data.Patterns; p != nil {
		note := fmt.Sprintf("Compliance %.0f%% over %d workouts (confidence %.0f%%)",
			p.AvgWeeklyCompliance, p.TotalWorkoutsTracked, p.PatternConfidence*100)
		rows = append(rows, "", mutedStyle.Render(note))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}
