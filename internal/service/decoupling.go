package service

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/analysis"
	"pedalcoach/internal/store"
)

// ActivityDetail is one activity with its efficiency and decoupling
type ActivityDetail struct {
	Activity     store.ActivitySummary        `json:"activity"`
	Efficiency   *analysis.EfficiencySample   `json:"efficiency"`
	Decoupling   *analysis.DecouplingEstimate `json:"decoupling"`
	StreamPoints int                          `json:"streamPoints"`
	DataQuality  float64                      `json:"dataQuality"`
	QualityLabel string                       `json:"qualityLabel"`
}

// ActivityDecoupling returns the decoupling of one activity, from its stream
// when one is stored and estimated from averages otherwise. A nil estimate
// with a nil error means the activity lacks the data to estimate it.
func (s *CoachService) ActivityDecoupling(id string) (*analysis.DecouplingEstimate, error) {
	cacheKey := []byte("decoupling::" + id)
	if cached, err := s.cache.Get(cacheKey); err == nil {
		var d analysis.DecouplingEstimate
		if err := json.Unmarshal(cached, &d); err == nil {
			s.metrics.CounterDecouplingCache.WithLabelValues("hit").Inc()
			return &d, nil
		}
		log.WithField("activity_id", id).Warn("discarding undecodable decoupling cache entry")
	}
	s.metrics.CounterDecouplingCache.WithLabelValues("miss").Inc()

	activity, err := s.store.GetActivity(id)
	if err != nil {
		return nil, err
	}
	streams, err := s.store.GetStreams(id)
	if err != nil {
		return nil, fmt.Errorf("loading streams: %w", err)
	}

	d := analysis.ComputeDecoupling(*activity, streams)
	if d == nil {
		return nil, nil
	}

	if encoded, err := json.Marshal(d); err == nil {
		if err := s.cache.Set(cacheKey, encoded, decouplingCacheExpirySec); err != nil {
			log.WithError(err).WithField("activity_id", id).Debug("decoupling cache set")
		}
	}
	return d, nil
}

// ActivityDetail gathers an activity's efficiency, decoupling and stream
// quality
func (s *CoachService) ActivityDetail(id string) (*ActivityDetail, error) {
	activity, err := s.store.GetActivity(id)
	if err != nil {
		return nil, err
	}
	streams, err := s.store.GetStreams(id)
	if err != nil {
		return nil, fmt.Errorf("loading streams: %w", err)
	}
	decoupling, err := s.ActivityDecoupling(id)
	if err != nil {
		return nil, err
	}

	quality := analysis.StreamQuality(streams)
	return &ActivityDetail{
		Activity:     *activity,
		Efficiency:   analysis.NewEfficiencySample(*activity),
		Decoupling:   decoupling,
		StreamPoints: len(streams),
		DataQuality:  quality,
		QualityLabel: analysis.DataQualityDescription(quality),
	}, nil
}

// InvalidateActivity drops cached derived values for an activity whose
// data changed
func (s *CoachService) InvalidateActivity(id string) {
	s.cache.Del([]byte("decoupling::" + id))
}
