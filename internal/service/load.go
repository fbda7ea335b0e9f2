package service

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/analysis"
	"pedalcoach/internal/store"
)

// LoadSeries returns CTL/ATL/TSB for every day in rng, modeled over the
// user's full history. The result is cached in load_snapshots.
func (s *CoachService) LoadSeries(rng analysis.DateRange) ([]analysis.LoadSnapshot, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	defer func(begin time.Time) {
		s.metrics.HistLoadSeriesDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())

	to := analysis.Day(rng.To)
	points, err := s.dailyLoad(to)
	if err != nil {
		return nil, err
	}

	series, err := analysis.LoadSeriesForRange(points, rng)
	if err != nil {
		return nil, err
	}

	if len(series) > 0 {
		last := series[len(series)-1]
		s.metrics.GaugeCTL.Set(last.CTL)
		s.metrics.GaugeATL.Set(last.ATL)
		s.metrics.GaugeTSB.Set(last.TSB)
	}

	if err := s.store.ReplaceLoadSnapshots(s.userID, snapshotRows(s.userID, points, series)); err != nil {
		// The cache is advisory; the computed series is still valid
		log.WithError(err).WithField("user_id", s.userID).Warn("caching load snapshots")
	}

	return series, nil
}

// LoadOn returns the load snapshot for a single day
func (s *CoachService) LoadOn(day time.Time) (analysis.LoadSnapshot, error) {
	d := analysis.Day(day)
	series, err := s.LoadSeries(analysis.DateRange{From: d, To: d})
	if err != nil {
		return analysis.LoadSnapshot{}, err
	}
	snap, ok := analysis.SnapshotOn(series, d)
	if !ok {
		return analysis.LoadSnapshot{Date: d}, nil
	}
	return snap, nil
}

// CurrentFitness returns today's load snapshot
func (s *CoachService) CurrentFitness() (analysis.LoadSnapshot, error) {
	return s.LoadOn(s.now())
}

// CachedLoadSeries reads the last computed series from load_snapshots
// without recomputing it. Days never computed are absent.
func (s *CoachService) CachedLoadSeries(rng analysis.DateRange) ([]analysis.LoadSnapshot, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.store.ListLoadSnapshots(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing load snapshots: %w", err)
	}

	series := make([]analysis.LoadSnapshot, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse(analysis.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot date %q: %w", r.Date, err)
		}
		series = append(series, analysis.LoadSnapshot{Date: d, CTL: r.CTL, ATL: r.ATL, TSB: r.TSB})
	}
	return series, nil
}

// dailyLoad aggregates every activity and cross-training session up to and
// including through into a dense daily series
func (s *CoachService) dailyLoad(through time.Time) ([]analysis.DailyLoadPoint, error) {
	activities, err := s.store.ListActivities(s.userID, time.Time{}, through)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	sessions, err := s.store.ListCrossTrainingSessions(s.userID, time.Time{}, through)
	if err != nil {
		return nil, fmt.Errorf("listing cross-training sessions: %w", err)
	}

	first := through
	for _, a := range activities {
		if d := analysis.Day(a.Date); d.Before(first) {
			first = d
		}
		if a.TSS != nil && invalidTSS(*a.TSS) {
			log.WithFields(log.Fields{"activity_id": a.ID, "tss": *a.TSS}).Debug("ignoring invalid TSS")
		}
	}
	for _, cs := range sessions {
		if d := analysis.Day(cs.Date); d.Before(first) {
			first = d
		}
		if invalidTSS(cs.EstimatedTSS) {
			log.WithFields(log.Fields{"session_id": cs.ID, "tss": cs.EstimatedTSS}).Debug("ignoring invalid TSS")
		}
	}

	return analysis.AggregateDailyTSS(activities, sessions, analysis.DateRange{From: first, To: through})
}

func invalidTSS(tss float64) bool {
	return math.IsNaN(tss) || analysis.SanitizeTSS(tss) != tss
}

func snapshotRows(userID string, points []analysis.DailyLoadPoint, series []analysis.LoadSnapshot) []store.LoadSnapshotRow {
	tssByDay := make(map[string]float64, len(points))
	for _, p := range points {
		tssByDay[p.Date.Format(analysis.DateLayout)] = p.TSS
	}

	rows := make([]store.LoadSnapshotRow, 0, len(series))
	for _, snap := range series {
		key := snap.Date.Format(analysis.DateLayout)
		rows = append(rows, store.LoadSnapshotRow{
			UserID: userID,
			Date:   key,
			TSS:    tssByDay[key],
			CTL:    snap.CTL,
			ATL:    snap.ATL,
			TSB:    snap.TSB,
		})
	}
	return rows
}
