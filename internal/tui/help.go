package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pedalcoach/internal/store"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Dashboard"},
		{"2", "Week adaptations"},
		{"3", "Training patterns"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	}))

	sections = append(sections, m.renderSection("Dashboard", []keyHelp{
		{"r", "Refresh data"},
	}))

	sections = append(sections, m.renderSection("Week", []keyHelp{
		{"← / h", "Previous week"},
		{"→ / l", "Next week"},
		{"t", "Jump to this week"},
		{"j / k", "Move cursor"},
		{"d", "Detect adaptations for the week"},
		{"enter", "Ride detail with decoupling"},
	}))

	sections = append(sections, m.renderSection("Patterns", []keyHelp{
		{"c", "Recompute from adaptation history"},
		{"r", "Reload stored snapshot"},
	}))

	sections = append(sections, m.renderMetricsHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionTitleStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderMetricsHelp() string {
	lines := []string{"", sectionTitleStyle.Render("Metrics Explained"), ""}

	metrics := []struct {
		name string
		desc string
	}{
		{"TSS", "Training stress score. 100 = one hour at FTP."},
		{"CTL (Fitness)", "Chronic training load, 42-day exponentially weighted TSS."},
		{"ATL (Fatigue)", "Acute training load, 7-day exponentially weighted TSS."},
		{"TSB (Form)", "Training stress balance = CTL - ATL. Positive = fresh."},
		{"EF", "Efficiency factor: power per heartbeat. Higher = fitter aerobically."},
		{"Decoupling", "HR drift against power over a ride. <5% = solid aerobic base."},
		{"Stimulus %", "Actual TSS against planned TSS (duration when TSS is missing)."},
	}

	for _, metric := range metrics {
		lines = append(lines, "  "+helpKeyStyle.Render(metric.name))
		lines = append(lines, "  "+mutedStyle.Render(metric.desc))
		lines = append(lines, "")
	}

	adaptations := []string{
		successStyle.Render("Completed") + " within 90-110% of plan",
		warningStyle.Render("Reduced") + " / " + warningStyle.Render("Exceeded") + " outside that band",
		adaptationStyle(store.AdaptationSubstituted).Render("Substituted") + " intensity far from the planned IF",
		errorStyle.Render("Skipped") + " no ride for a past workout",
	}
	lines = append(lines, "  "+helpKeyStyle.Render("Adaptations"))
	for _, a := range adaptations {
		lines = append(lines, "  "+a)
	}

	return strings.Join(lines, "\n")
}
