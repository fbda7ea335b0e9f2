package analysis

import (
	"math"
	"sort"
	"time"
)

// Time constants (days) for the load model
const (
	CTLTimeConstant = 42.0
	ATLTimeConstant = 7.0

	// ATL only looks at the trailing week, today included
	ATLWindowDays = 7
)

var (
	ctlLambda = 1.0 / CTLTimeConstant
	atlLambda = 1.0 / ATLTimeConstant

	ctlDecay = math.Exp(-ctlLambda)
)

// LoadSnapshot represents CTL/ATL/TSB for a day
type LoadSnapshot struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"` // Chronic Training Load - "Fitness"
	ATL  float64   `json:"atl"` // Acute Training Load - "Fatigue"
	TSB  float64   `json:"tsb"` // Training Stress Balance (CTL - ATL) - "Form"
}

// Rounded returns the display form: CTL and ATL rounded to whole numbers,
// TSB recomputed from the rounded values so the identity still holds.
func (s LoadSnapshot) Rounded() LoadSnapshot {
	ctl := math.Round(s.CTL)
	atl := math.Round(s.ATL)
	return LoadSnapshot{Date: s.Date, CTL: ctl, ATL: atl, TSB: ctl - atl}
}

// densify sorts points, sums duplicates and fills missing days with zero load
func densify(points []DailyLoadPoint) []DailyLoadPoint {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]DailyLoadPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	start := Day(sorted[0].Date)
	end := Day(sorted[len(sorted)-1].Date)

	dense := make([]DailyLoadPoint, daysBetween(start, end)+1)
	for i := range dense {
		dense[i].Date = start.AddDate(0, 0, i)
	}
	for _, p := range sorted {
		dense[daysBetween(start, Day(p.Date))].TSS += SanitizeTSS(p.TSS)
	}
	return dense
}

// ComputeLoadSeries computes CTL/ATL/TSB for every day covered by points.
// CTL is the incremental recursion ctl_i = ctl_{i-1}*e^(-1/42) + t_i/42,
// ATL is the exponentially weighted sum over the trailing 7 days.
func ComputeLoadSeries(points []DailyLoadPoint) []LoadSnapshot {
	dense := densify(points)
	if len(dense) == 0 {
		return nil
	}

	series := make([]LoadSnapshot, len(dense))
	var ctl float64
	for i, p := range dense {
		ctl = ctl*ctlDecay + p.TSS*ctlLambda
		atl := windowedATL(dense, i)
		series[i] = LoadSnapshot{
			Date: p.Date,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		}
	}
	return series
}

func windowedATL(dense []DailyLoadPoint, i int) float64 {
	first := i - ATLWindowDays + 1
	if first < 0 {
		first = 0
	}
	var sum float64
	for j := first; j <= i; j++ {
		sum += dense[j].TSS * math.Exp(-atlLambda*float64(i-j))
	}
	return sum * atlLambda
}

// ComputeCTLResummed re-sums the whole history for every day. It is O(n²)
// and only kept as the reference the incremental recursion is checked against.
func ComputeCTLResummed(points []DailyLoadPoint) []float64 {
	dense := densify(points)
	out := make([]float64, len(dense))
	for i := range dense {
		var sum float64
		for j := 0; j <= i; j++ {
			sum += dense[j].TSS * math.Exp(-ctlLambda*float64(i-j))
		}
		out[i] = sum * ctlLambda
	}
	return out
}

// LoadSeriesForRange models the full history in points and returns the
// snapshots inside rng. Days in rng after the last point carry decaying load.
func LoadSeriesForRange(points []DailyLoadPoint, rng DateRange) ([]LoadSnapshot, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	extended := make([]DailyLoadPoint, 0, len(points)+2)
	for _, p := range points {
		if !Day(p.Date).After(Day(rng.To)) {
			extended = append(extended, p)
		}
	}
	// Anchor both ends so the dense series covers the whole range
	extended = append(extended,
		DailyLoadPoint{Date: Day(rng.From)},
		DailyLoadPoint{Date: Day(rng.To)},
	)

	var out []LoadSnapshot
	for _, s := range ComputeLoadSeries(extended) {
		if rng.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out, nil
}

// CurrentLoad returns the most recent CTL/ATL/TSB values
func CurrentLoad(points []DailyLoadPoint) LoadSnapshot {
	series := ComputeLoadSeries(points)
	if len(series) == 0 {
		return LoadSnapshot{}
	}
	return series[len(series)-1]
}

// SnapshotOn returns the snapshot for day, or false if the series doesn't cover it
func SnapshotOn(series []LoadSnapshot, day time.Time) (LoadSnapshot, bool) {
	d := Day(day)
	idx := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(d)
	})
	if idx < len(series) && series[idx].Date.Equal(d) {
		return series[idx], true
	}
	return LoadSnapshot{}, false
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh and ready to race"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
