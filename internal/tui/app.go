package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pedalcoach/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenWeek
	ScreenPatterns
	ScreenActivityDetail
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard DashboardModel
	week      WeekModel
	patterns  PatternsModel
	detail    ActivityDetailModel
	help      HelpModel

	coach *service.CoachService

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App around the coaching service
func NewApp(coach *service.CoachService) *App {
	return &App{
		screen:    ScreenDashboard,
		coach:     coach,
		dashboard: NewDashboardModel(coach, 0),
		week:      NewWeekModel(coach, coach.Now()),
		patterns:  NewPatternsModel(coach, 0, 0),
		help:      NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings, held back while a detection is running
		if a.screen != ScreenWeek || !a.week.detecting {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.coach, a.width)
				return a, a.dashboard.Init()
			case "2":
				if a.screen != ScreenWeek {
					a.screen = ScreenWeek
					a.week.loading = true
					return a, a.week.Init()
				}
			case "3":
				a.screen = ScreenPatterns
				a.patterns = NewPatternsModel(a.coach, a.width, a.height)
				return a, a.patterns.Init()
			case "?":
				if a.screen != ScreenHelp {
					a.prevScreen = a.screen
					a.screen = ScreenHelp
				}
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenActivityDetail:
					a.screen = ScreenWeek
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Every screen tracks the size, not just the visible one
		a.dashboard = forward(a.dashboard, msg).(DashboardModel)
		a.patterns = forward(a.patterns, msg).(PatternsModel)
		a.detail = forward(a.detail, msg).(ActivityDetailModel)
		return a, nil

	case OpenActivityDetailMsg:
		a.screen = ScreenActivityDetail
		a.detail = NewActivityDetailModel(a.coach, msg.ActivityID, a.width, a.height)
		return a, a.detail.Init()

	case weekDetectedMsg:
		// Detection can finish after the user switched screens
		var cmd tea.Cmd
		var m tea.Model
		m, cmd = a.week.Update(msg)
		a.week = m.(WeekModel)
		return a, cmd

	case weekLoadedMsg:
		var cmd tea.Cmd
		var m tea.Model
		m, cmd = a.week.Update(msg)
		a.week = m.(WeekModel)
		return a, cmd
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenWeek:
		var m tea.Model
		m, cmd = a.week.Update(msg)
		a.week = m.(WeekModel)
	case ScreenPatterns:
		var m tea.Model
		m, cmd = a.patterns.Update(msg)
		a.patterns = m.(PatternsModel)
	case ScreenActivityDetail:
		var m tea.Model
		m, cmd = a.detail.Update(msg)
		a.detail = m.(ActivityDetailModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// forward passes a message to an off-screen model and drops its command
func forward(m tea.Model, msg tea.Msg) tea.Model {
	updated, _ := m.Update(msg)
	return updated
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenWeek:
		content = a.week.View()
	case ScreenPatterns:
		content = a.patterns.View()
	case ScreenActivityDetail:
		content = a.detail.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Pedal Coach · Training Load & Adaptations")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Week", ScreenWeek},
		{"3", "Patterns", ScreenPatterns},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen ||
			(item.screen == ScreenWeek && a.screen == ScreenActivityDetail)
		if active {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}
