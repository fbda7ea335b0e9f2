package analysis

import (
	"fmt"
	"math"
	"time"

	"pedalcoach/internal/store"
)

// DateLayout is the calendar-day format used for keys and display
const DateLayout = "2006-01-02"

// DailyLoadPoint is the total training stress for one calendar day
type DailyLoadPoint struct {
	Date time.Time `json:"date"`
	TSS  float64   `json:"tss"`
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	From time.Time
	To   time.Time
}

// InvalidRangeError is returned when a caller asks for a reversed range.
// It is the only error class the analysis functions return.
type InvalidRangeError struct {
	From time.Time
	To   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: from %s is after to %s",
		e.From.Format(DateLayout), e.To.Format(DateLayout))
}

// NewDateRange builds a range normalized to calendar days
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: Day(from), To: Day(to)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate fails with *InvalidRangeError when To is before From
func (r DateRange) Validate() error {
	if Day(r.To).Before(Day(r.From)) {
		return &InvalidRangeError{From: r.From, To: r.To}
	}
	return nil
}

// Days returns the number of calendar days in the range (inclusive)
func (r DateRange) Days() int {
	return daysBetween(Day(r.From), Day(r.To)) + 1
}

// Contains reports whether t falls on a day inside the range
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(r.From)) && !d.After(Day(r.To))
}

// Day truncates t to its calendar day, expressed as UTC midnight.
// The wall-clock date of t is kept so a 23:30 local ride stays on its day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

// SanitizeTSS clamps negative and non-finite values to 0
func SanitizeTSS(tss float64) float64 {
	if math.IsNaN(tss) || math.IsInf(tss, 0) || tss < 0 {
		return 0
	}
	return tss
}

// AggregateDailyTSS sums rides and cross-training into one TSS value per day.
// Every day of rng is present in the result; days without records have 0.
func AggregateDailyTSS(activities []store.ActivitySummary, sessions []store.CrossTrainingSession, rng DateRange) ([]DailyLoadPoint, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	start := Day(rng.From)
	points := make([]DailyLoadPoint, rng.Days())
	for i := range points {
		points[i].Date = start.AddDate(0, 0, i)
	}

	add := func(date time.Time, tss float64) {
		if !rng.Contains(date) {
			return
		}
		idx := daysBetween(start, Day(date))
		points[idx].TSS += SanitizeTSS(tss)
	}

	for _, a := range activities {
		if a.TSS == nil {
			continue
		}
		add(a.Date, *a.TSS)
	}
	for _, s := range sessions {
		add(s.Date, s.EstimatedTSS)
	}

	return points, nil
}
