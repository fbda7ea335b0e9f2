package adaptation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pedalcoach/internal/analysis"
)

func TestWeekStart(t *testing.T) {
	assert.Equal(t, date("2026-03-09"), WeekStart(date("2026-03-09")))
	assert.Equal(t, date("2026-03-09"), WeekStart(date("2026-03-12")))
	assert.Equal(t, date("2026-03-09"), WeekStart(date("2026-03-15")))

	r := WeekRange(date("2026-03-11"))
	assert.Equal(t, date("2026-03-15"), r.To)
	assert.Equal(t, 7, r.Days())
}

func TestPlan(t *testing.T) {
	plan := Plan{
		Start: date("2026-01-07"), // a Wednesday
		Phases: []Phase{
			{Name: "base", Weeks: 4},
			{Name: "build", Weeks: 3},
			{Name: "peak", Weeks: 1},
		},
	}

	tests := []struct {
		day   string
		week  int
		phase string
	}{
		{"2026-01-01", 0, ""},
		{"2026-01-05", 1, "base"},
		{"2026-02-01", 4, "base"},
		{"2026-02-02", 5, "build"},
		{"2026-02-22", 7, "build"},
		{"2026-02-23", 8, "peak"},
		{"2026-04-01", 13, "peak"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.week, plan.WeekNumber(date(tt.day)), "week of %s", tt.day)
		assert.Equal(t, tt.phase, plan.PhaseOn(date(tt.day)), "phase of %s", tt.day)
	}
}

func TestPlan_NoStartUsesISOWeek(t *testing.T) {
	var plan Plan
	assert.Equal(t, 11, plan.WeekNumber(date("2026-03-12")))
	assert.Equal(t, "", plan.PhaseOn(date("2026-03-12")))

	tc := plan.Context("athlete-1", date("2026-03-12"), analysis.LoadSnapshot{CTL: 50})
	assert.Equal(t, 11, tc.WeekNumber)
	assert.Equal(t, 50.0, tc.Load.CTL)
	assert.Equal(t, "athlete-1", tc.UserID)
}
