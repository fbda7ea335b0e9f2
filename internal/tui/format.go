package tui

import (
	"fmt"
	"time"

	"pedalcoach/internal/store"
)

// formatMinutes renders a duration given in minutes as "1h 05m" or "45m"
func formatMinutes(minutes float64) string {
	if minutes <= 0 {
		return "-"
	}
	total := int(minutes + 0.5)
	h := total / 60
	m := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// formatOptional renders a nullable number or "-"
func formatOptional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

// formatSigned renders a nullable delta with an explicit sign
func formatSigned(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.0f", *v)
}

func formatPct(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *v)
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

var adaptationLabels = map[store.AdaptationType]string{
	store.AdaptationCompleted:   "Completed",
	store.AdaptationReduced:     "Reduced",
	store.AdaptationExceeded:    "Exceeded",
	store.AdaptationSubstituted: "Substituted",
	store.AdaptationSkipped:     "Skipped",
	store.AdaptationUnplanned:   "Unplanned",
}

// adaptationLabel returns the display name for an adaptation type
func adaptationLabel(t store.AdaptationType) string {
	if label, ok := adaptationLabels[t]; ok {
		return label
	}
	return string(t)
}

// weekdayShort renders a list of weekdays as "Mon, Thu"
func weekdayShort(days []time.Weekday) string {
	if len(days) == 0 {
		return "-"
	}
	s := ""
	for i, d := range days {
		if i > 0 {
			s += ", "
		}
		s += d.String()[:3]
	}
	return s
}
