package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pedalcoach/internal/service"
	"pedalcoach/internal/store"
)

// PatternsModel shows the rider's long-term compliance patterns
type PatternsModel struct {
	coach    *service.CoachService
	patterns *store.UserTrainingPatterns
	viewport viewport.Model
	loading  bool
	status   string
	err      error
	ready    bool
}

// NewPatternsModel creates a new patterns model
func NewPatternsModel(coach *service.CoachService, width, height int) PatternsModel {
	m := PatternsModel{
		coach:   coach,
		loading: true,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}
	return m
}

// Init initializes the patterns screen
func (m PatternsModel) Init() tea.Cmd {
	return m.loadPatterns
}

type patternsLoadedMsg struct {
	patterns *store.UserTrainingPatterns
	status   string
	err      error
}

func (m PatternsModel) loadPatterns() tea.Msg {
	patterns, err := m.coach.Patterns()
	if errors.Is(err, store.ErrPatternsNotFound) {
		return patternsLoadedMsg{}
	}
	return patternsLoadedMsg{patterns: patterns, err: err}
}

func (m PatternsModel) recompute() tea.Msg {
	patterns, err := m.coach.RecomputePatterns()
	if errors.Is(err, service.ErrNoHistory) {
		return patternsLoadedMsg{status: "No adaptation history yet"}
	}
	if err != nil {
		return patternsLoadedMsg{err: err}
	}
	return patternsLoadedMsg{patterns: patterns, status: fmt.Sprintf("Recomputed (version %d)", patterns.Version)}
}

// Update handles messages
func (m PatternsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case patternsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.status = msg.status
		if msg.patterns != nil || msg.err != nil {
			m.patterns = msg.patterns
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.viewport.SetContent(m.renderContent())

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadPatterns
		case "c":
			m.loading = true
			return m, m.recompute
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the patterns screen
func (m PatternsModel) View() string {
	if m.loading {
		return "\n  Loading patterns..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	footer := "  c: recompute  r: reload  j/k or arrows: scroll"
	if m.status != "" {
		footer = "  " + m.status + "  ·" + footer
	}

	if !m.ready {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderContent(), statusStyle.Render(footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), statusStyle.Render(footer))
}

func (m PatternsModel) renderContent() string {
	title := cardTitleStyle.Render("Training Patterns")
	p := m.patterns
	if p == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			"No patterns computed yet. Detect a week of adaptations or press 'c'.")
	}

	var lines []string
	lines = append(lines, title)

	confidence := fmt.Sprintf("%.0f%%", p.PatternConfidence*100)
	if !p.HasEnoughData {
		confidence += warningStyle.Render("  (not enough data for reliable trends)")
	}

	lines = append(lines,
		RenderMetric("Workouts tracked", fmt.Sprintf("%d", p.TotalWorkoutsTracked), ""),
		RenderMetric("Compliance", fmt.Sprintf("%.1f%%", p.AvgWeeklyCompliance), ""),
		RenderMetric("TSS achieved", formatOptional(p.AvgTSSAchievementPct, "%.1f%%"), ""),
		RenderMetric("Confidence", confidence, ""),
		RenderMetric("Computed", p.ComputedAt.Local().Format("Jan 02 15:04"), ""),
	)

	switch {
	case p.TendsToUndertrain:
		lines = append(lines, "", warningStyle.Render("Tends to undertrain: planned load is often not reached."))
	case p.TendsToOverreach:
		lines = append(lines, "", warningStyle.Render("Tends to overreach: rides often exceed the plan."))
	}

	lines = append(lines, "", sectionTitleStyle.Render("By Weekday"))
	for _, wc := range p.ComplianceByWeekday {
		if wc.Total == 0 {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-9s  -", wc.Weekday)))
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-9s  %s %5.1f%%  (%d/%d)",
			wc.Weekday, RenderProgressBar(wc.Pct/100, 20), wc.Pct, wc.Completed, wc.Total))
	}

	lines = append(lines, "",
		RenderMetric("Preferred days", weekdayShort(p.PreferredDays), ""),
		RenderMetric("Problematic days", weekdayShort(p.ProblematicDays), ""),
	)

	lines = append(lines, "", sectionTitleStyle.Render("Common Adaptations"))
	lines = append(lines, renderFrequencies(p.CommonAdaptations, func(k string) string {
		return adaptationLabel(store.AdaptationType(k))
	})...)

	lines = append(lines, "", sectionTitleStyle.Render("Reasons Given"))
	lines = append(lines, renderFrequencies(p.ReasonDistribution, nil)...)

	return strings.Join(lines, "\n")
}

func renderFrequencies(freqs []store.Frequency, label func(string) string) []string {
	if len(freqs) == 0 {
		return []string{mutedStyle.Render("  none")}
	}
	lines := make([]string, 0, len(freqs))
	for _, f := range freqs {
		name := f.Key
		if label != nil {
			name = label(f.Key)
		}
		lines = append(lines, fmt.Sprintf("  %-14s %4d  %5.1f%%", truncateName(name, 14), f.Count, f.Pct))
	}
	return lines
}
