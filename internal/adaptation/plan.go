package adaptation

import (
	"time"

	"pedalcoach/internal/analysis"
)

// Phase is one block of the training plan
type Phase struct {
	Name  string
	Weeks int
}

// Plan maps calendar dates onto plan weeks and phases
type Plan struct {
	Start  time.Time
	Phases []Phase
}

// WeekStart returns the Monday of the week containing t
func WeekStart(t time.Time) time.Time {
	d := analysis.Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekRange returns the Monday-Sunday range containing t
func WeekRange(t time.Time) analysis.DateRange {
	start := WeekStart(t)
	return analysis.DateRange{From: start, To: start.AddDate(0, 0, 6)}
}

// WeekNumber returns the 1-based plan week for t. Without a plan start the
// ISO week number is used.
func (p Plan) WeekNumber(t time.Time) int {
	if p.Start.IsZero() {
		_, week := analysis.Day(t).ISOWeek()
		return week
	}
	days := int(WeekStart(t).Sub(WeekStart(p.Start)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

// PhaseOn returns the phase name for t, "" before the plan starts and the
// last phase once the plan has run out
func (p Plan) PhaseOn(t time.Time) string {
	week := p.WeekNumber(t)
	if p.Start.IsZero() || week < 1 || len(p.Phases) == 0 {
		return ""
	}
	remaining := week
	for _, ph := range p.Phases {
		if remaining <= ph.Weeks {
			return ph.Name
		}
		remaining -= ph.Weeks
	}
	return p.Phases[len(p.Phases)-1].Name
}

// Context builds the training context for a detection run
func (p Plan) Context(userID string, week time.Time, load analysis.LoadSnapshot) TrainingContext {
	return TrainingContext{
		UserID:     userID,
		WeekNumber: p.WeekNumber(week),
		Phase:      p.PhaseOn(week),
		Load:       load,
	}
}
