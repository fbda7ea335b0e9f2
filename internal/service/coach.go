package service

import (
	"errors"
	"time"

	"github.com/coocood/freecache"

	"pedalcoach/internal/adaptation"
	"pedalcoach/internal/config"
	"pedalcoach/internal/metrics"
	"pedalcoach/internal/store"
)

// ErrNoHistory is returned when a pattern recompute found no current
// adaptations. The stored snapshot is left untouched.
var ErrNoHistory = errors.New("no adaptation history")

// Options configures a CoachService
type Options struct {
	UserID    string
	FTP       *float64 // nil when unknown
	MinData   int
	ChartDays int
	Detector  adaptation.DetectorConfig
	Plan      adaptation.Plan
}

// OptionsFromConfig maps the user config onto service options
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		UserID:    cfg.Athlete.UserID,
		MinData:   cfg.Adaptation.MinDataForPredictions,
		ChartDays: cfg.Display.ChartDays,
		Detector: adaptation.DetectorConfig{
			CompletedLowerPct:      cfg.Adaptation.CompletedLowerPct,
			CompletedUpperPct:      cfg.Adaptation.CompletedUpperPct,
			SubstitutionLowerRatio: cfg.Adaptation.SubstitutionLowerRatio,
			SubstitutionUpperRatio: cfg.Adaptation.SubstitutionUpperRatio,
		},
		Plan: adaptation.Plan{Start: cfg.PlanStart()},
	}
	if cfg.Athlete.FTP > 0 {
		ftp := cfg.Athlete.FTP
		opts.FTP = &ftp
	}
	for _, ph := range cfg.Plan.Phases {
		opts.Plan.Phases = append(opts.Plan.Phases, adaptation.Phase{Name: ph.Name, Weeks: ph.Weeks})
	}
	return opts
}

// CoachService ties the store to the load model, the adaptation detector
// and the pattern aggregator. It is shared by the TUI, the HTTP API and the
// CLI subcommands.
type CoachService struct {
	store     *store.DB
	detector  *adaptation.Detector
	plan      adaptation.Plan
	userID    string
	ftp       *float64
	minData   int
	chartDays int
	metrics   *metrics.Manager
	cache     *freecache.Cache
	now       func() time.Time
}

// NewCoachService creates a coach service
func NewCoachService(db *store.DB, opts Options, m *metrics.Manager) *CoachService {
	if opts.ChartDays <= 0 {
		opts.ChartDays = DefaultChartDays
	}
	if opts.MinData <= 0 {
		opts.MinData = 1
	}
	if m == nil {
		m = metrics.NewTestManager()
	}
	return &CoachService{
		store:     db,
		detector:  adaptation.NewDetector(opts.Detector),
		plan:      opts.Plan,
		userID:    opts.UserID,
		ftp:       opts.FTP,
		minData:   opts.MinData,
		chartDays: opts.ChartDays,
		metrics:   m,
		cache:     freecache.NewCache(decouplingCacheSize),
		now:       time.Now,
	}
}

// WithClock makes the service (and its detector) read time from now
func (s *CoachService) WithClock(now func() time.Time) *CoachService {
	s.now = now
	s.detector = s.detector.WithClock(now)
	return s
}

// UserID returns the athlete the service works for
func (s *CoachService) UserID() string {
	return s.userID
}

// Now returns the service clock's current time
func (s *CoachService) Now() time.Time {
	return s.now()
}
