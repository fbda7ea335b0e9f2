package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/analysis"
	"pedalcoach/internal/api"
	"pedalcoach/internal/config"
	"pedalcoach/internal/logging"
	"pedalcoach/internal/metrics"
	"pedalcoach/internal/service"
	"pedalcoach/internal/store"
	"pedalcoach/internal/tui"
)

const usage = `Usage: pedalcoach [command] [flags]

Commands:
  (none)      open the terminal dashboard
  serve       run the HTTP API
  detect      detect adaptations for a week (-week YYYY-MM-DD, default this week)
  patterns    recompute training patterns from the adaptation history
  load        print CTL/ATL/TSB for a date range (-from, -to)
`

var errInvalidConfig = errors.New("invalid config")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := ""
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}
	if command == "help" {
		fmt.Print(usage)
		return nil
	}

	// Load configuration
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.toml\n\n", configDir)
		fmt.Println("Set your FTP and training plan start date, then run pedalcoach again.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed:\n  %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.toml\n", configDir)
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	logFile, err := cfg.LogFile()
	if err != nil {
		return err
	}
	closer := logging.Setup(logging.SetupParams{
		LogFileName:   logFile,
		LogToStdout:   cfg.Logging.ToStdout && command != "",
		LogLevel:      cfg.Logging.Level,
		LogFormatJSON: cfg.Logging.JSON,
	})
	defer closer.Close()

	// Open database
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewManager("pedalcoach", "coach", reg)

	coach := service.NewCoachService(db, service.OptionsFromConfig(cfg), m)

	switch command {
	case "":
		return runTUI(coach)
	case "serve":
		return runServe(cfg, coach, m, reg)
	case "detect":
		return runDetect(coach, args)
	case "patterns":
		return runPatterns(coach)
	case "load":
		return runLoad(coach, args)
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runTUI(coach *service.CoachService) error {
	app := tui.NewApp(coach)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runServe(cfg *config.Config, coach *service.CoachService, m *metrics.Manager, reg *prometheus.Registry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(api.ServerParams{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Coach:        coach,
		Metrics:      m,
		Registry:     reg,
	})

	log.WithField("address", cfg.Server.Address).Info("starting API server")
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serving API: %w", err)
	}
	log.Info("API server stopped")
	return nil
}

func runDetect(coach *service.CoachService, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	week := fs.String("week", "", "any day of the week to detect (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	weekOf := coach.Now()
	if *week != "" {
		var err error
		if weekOf, err = time.Parse(analysis.DateLayout, *week); err != nil {
			return fmt.Errorf("invalid -week %q: %w", *week, err)
		}
	}

	detected, err := coach.DetectWeek(weekOf)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s  %-22s  %7s  %7s  %5s\n", "Date", "Outcome", "Planned", "Actual", "Pct")
	for _, a := range detected {
		fmt.Printf("%-10s  %-22s  %7s  %7s  %5s\n",
			a.WorkoutDate.Format(analysis.DateLayout),
			a.AdaptationType,
			optional(a.PlannedTSS),
			optional(a.ActualTSS),
			optionalPct(a.StimulusAchievedPct),
		)
	}

	summary, err := coach.WeekSummary(weekOf)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d planned, %d completed, %d adapted, %d skipped, %d unplanned. TSS %.0f of %.0f\n",
		summary.TotalPlanned, summary.TotalCompleted, summary.TotalAdapted,
		summary.TotalSkipped, summary.TotalUnplanned, summary.TSSActual, summary.TSSPlanned)
	return nil
}

func runPatterns(coach *service.CoachService) error {
	patterns, err := coach.RecomputePatterns()
	if errors.Is(err, service.ErrNoHistory) {
		fmt.Println("No adaptation history yet. Run 'pedalcoach detect' first.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Workouts tracked: %d\n", patterns.TotalWorkoutsTracked)
	fmt.Printf("Compliance:       %.1f%%\n", patterns.AvgWeeklyCompliance)
	fmt.Printf("TSS achieved:     %s\n", optional(patterns.AvgTSSAchievementPct))
	fmt.Printf("Confidence:       %.0f%%\n", patterns.PatternConfidence*100)
	fmt.Printf("Preferred days:   %v\n", patterns.PreferredDays)
	fmt.Printf("Problematic days: %v\n", patterns.ProblematicDays)
	return nil
}

func runLoad(coach *service.CoachService, args []string) error {
	today := analysis.Day(coach.Now())

	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	from := fs.String("from", today.AddDate(0, 0, -13).Format(analysis.DateLayout), "first day (YYYY-MM-DD)")
	to := fs.String("to", today.Format(analysis.DateLayout), "last day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fromDay, err := time.Parse(analysis.DateLayout, *from)
	if err != nil {
		return fmt.Errorf("invalid -from %q: %w", *from, err)
	}
	toDay, err := time.Parse(analysis.DateLayout, *to)
	if err != nil {
		return fmt.Errorf("invalid -to %q: %w", *to, err)
	}
	rng, err := analysis.NewDateRange(fromDay, toDay)
	if err != nil {
		return err
	}
	series, err := coach.LoadSeries(rng)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s  %6s  %6s  %6s\n", "Date", "CTL", "ATL", "TSB")
	for _, s := range series {
		r := s.Rounded()
		fmt.Printf("%-10s  %6.0f  %6.0f  %+6.0f\n", s.Date.Format(analysis.DateLayout), r.CTL, r.ATL, r.TSB)
	}
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func optionalPct(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *v)
}
