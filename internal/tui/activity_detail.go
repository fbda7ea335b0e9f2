package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pedalcoach/internal/service"
)

// ActivityDetailModel is the ride detail screen model
type ActivityDetailModel struct {
	coach      *service.CoachService
	activityID string
	detail     *service.ActivityDetail
	viewport   viewport.Model
	loading    bool
	err        error
	ready      bool
}

// NewActivityDetailModel creates a new activity detail model
func NewActivityDetailModel(coach *service.CoachService, activityID string, width, height int) ActivityDetailModel {
	m := ActivityDetailModel{
		coach:      coach,
		activityID: activityID,
		loading:    true,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the activity detail screen
func (m ActivityDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type activityDetailLoadedMsg struct {
	detail *service.ActivityDetail
	err    error
}

func (m ActivityDetailModel) loadDetail() tea.Msg {
	detail, err := m.coach.ActivityDetail(m.activityID)
	return activityDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m ActivityDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activityDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
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
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			// Streams may have been re-imported since the estimate was cached
			m.coach.InvalidateActivity(m.activityID)
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the activity detail screen
func (m ActivityDetailModel) View() string {
	if m.loading {
		return "\n  Loading ride details..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	footer := statusStyle.Render("  esc: back to week  j/k or arrows: scroll  r: recompute")

	if !m.ready {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderContent(), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ActivityDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}

	sections := []string{
		m.renderHeader(),
		m.renderSummary(),
		m.renderDecoupling(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ActivityDetailModel) renderHeader() string {
	a := m.detail.Activity

	name := a.Sport
	if name == "" {
		name = "Ride"
	}
	title := cardTitleStyle.Render(fmt.Sprintf("%s · %s", strings.ToUpper(name[:1])+name[1:], a.ID))
	subtitle := mutedStyle.Render(a.Date.Format("Monday, January 2, 2006"))

	stats := fmt.Sprintf("%s  •  TSS %s  •  IF %s",
		formatMinutes(a.DurationMin),
		formatOptional(a.TSS, "%.0f"),
		formatOptional(a.IntensityFactor, "%.2f"))
	statsLine := metricValueStyle.Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, statsLine, "")
}

func (m ActivityDetailModel) renderSummary() string {
	a := m.detail.Activity
	var lines []string

	lines = append(lines, sectionTitleStyle.Render("Summary"))
	lines = append(lines, fmt.Sprintf("  Average Power:        %s", formatOptional(a.AvgPower, "%.0f W")))
	lines = append(lines, fmt.Sprintf("  Normalized Power:     %s", formatOptional(a.NormalizedPower, "%.0f W")))
	lines = append(lines, fmt.Sprintf("  Max Power:            %s", formatOptional(a.MaxPower, "%.0f W")))
	lines = append(lines, fmt.Sprintf("  Average HR:           %s", formatOptional(a.AvgHeartRate, "%.0f bpm")))

	ef := "-"
	if m.detail.Efficiency != nil {
		ef = fmt.Sprintf("%.2f", m.detail.Efficiency.EF)
	}
	lines = append(lines, fmt.Sprintf("  Efficiency Factor:    %s", ef))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m ActivityDetailModel) renderDecoupling() string {
	var lines []string

	lines = append(lines, sectionTitleStyle.Render("Aerobic Decoupling"))

	d := m.detail.Decoupling
	if d == nil {
		lines = append(lines, mutedStyle.Render("  Not enough power and heart rate data to estimate"))
	} else {
		source := "from streams"
		if d.IsEstimate {
			source = "estimated from averages"
		}
		lines = append(lines, fmt.Sprintf("  Decoupling:           %.1f%%  (%s)", d.DecouplingPct, source))
		lines = append(lines, fmt.Sprintf("  Interpretation:       %s", d.Interpretation.Label))
	}

	quality := "no stream data"
	if m.detail.StreamPoints > 0 {
		quality = fmt.Sprintf("%d points, %s (%.0f%% usable)",
			m.detail.StreamPoints, m.detail.QualityLabel, m.detail.DataQuality*100)
	}
	lines = append(lines, fmt.Sprintf("  Stream quality:       %s", quality))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}
