package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Config represents the application configuration
type Config struct {
	Athlete    AthleteConfig    `toml:"athlete"`
	Adaptation AdaptationConfig `toml:"adaptation"`
	Plan       PlanConfig       `toml:"plan"`
	Display    DisplayConfig    `toml:"display"`
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	Database   DatabaseConfig   `toml:"database"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	UserID    string  `toml:"user_id"`
	FTP       float64 `toml:"ftp"` // watts, 0 when unknown
	RestingHR float64 `toml:"resting_hr"`
	MaxHR     float64 `toml:"max_hr"`
}

// AdaptationConfig holds the adaptation classification bounds
type AdaptationConfig struct {
	CompletedLowerPct      int     `toml:"completed_lower_pct"`
	CompletedUpperPct      int     `toml:"completed_upper_pct"`
	SubstitutionLowerRatio float64 `toml:"substitution_lower_ratio"`
	SubstitutionUpperRatio float64 `toml:"substitution_upper_ratio"`
	MinDataForPredictions  int     `toml:"min_data_for_predictions"`
}

// PlanConfig describes the current training plan
type PlanConfig struct {
	StartDate string        `toml:"start_date"` // YYYY-MM-DD, empty for none
	Phases    []PhaseConfig `toml:"phases"`
}

// PhaseConfig is one block of the training plan
type PhaseConfig struct {
	Name  string `toml:"name"`
	Weeks int    `toml:"weeks"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	ChartDays int `toml:"chart_days"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string        `toml:"address"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level    string `toml:"level"`
	File     string `toml:"file"` // empty for ~/.pedalcoach/pedalcoach.log
	JSON     bool   `toml:"json"`
	ToStdout bool   `toml:"to_stdout"`
}

// DatabaseConfig holds storage settings
type DatabaseConfig struct {
	Path string `toml:"path"` // empty for ~/.pedalcoach/data.db
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			UserID:    "local",
			RestingHR: 50,
			MaxHR:     185,
		},
		Adaptation: AdaptationConfig{
			CompletedLowerPct:      90,
			CompletedUpperPct:      110,
			SubstitutionLowerRatio: 0.75,
			SubstitutionUpperRatio: 1.33,
			MinDataForPredictions:  10,
		},
		Display: DisplayConfig{
			ChartDays: 90,
		},
		Server: ServerConfig{
			Address:      "127.0.0.1:8420",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from ~/.pedalcoach/config.toml
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path. Values missing from the file
// keep their defaults.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoConfig
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.pedalcoach/config.toml
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to path
func SaveTo(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Athlete.FTP = 250
	example.Plan = PlanConfig{
		StartDate: time.Now().Format("2006-01-02"),
		Phases: []PhaseConfig{
			{Name: "base", Weeks: 6},
			{Name: "build", Weeks: 4},
			{Name: "peak", Weeks: 2},
			{Name: "taper", Weeks: 1},
		},
	}

	return SaveTo(&example, path)
}

// Validate checks the config and reports every problem found
func (c *Config) Validate() error {
	var err error

	if strings.TrimSpace(c.Athlete.UserID) == "" {
		err = multierr.Append(err, errors.New("athlete.user_id is required"))
	}
	if c.Athlete.FTP < 0 {
		err = multierr.Append(err, fmt.Errorf("athlete.ftp must not be negative, got %v", c.Athlete.FTP))
	}
	if c.Athlete.RestingHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.RestingHR >= c.Athlete.MaxHR {
		err = multierr.Append(err, fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR))
	}

	a := c.Adaptation
	if a.CompletedLowerPct <= 0 || a.CompletedLowerPct > 100 {
		err = multierr.Append(err, fmt.Errorf("adaptation.completed_lower_pct must be in (0, 100], got %d", a.CompletedLowerPct))
	}
	if a.CompletedUpperPct < 100 {
		err = multierr.Append(err, fmt.Errorf("adaptation.completed_upper_pct must be at least 100, got %d", a.CompletedUpperPct))
	}
	if a.SubstitutionLowerRatio <= 0 || a.SubstitutionLowerRatio >= 1 {
		err = multierr.Append(err, fmt.Errorf("adaptation.substitution_lower_ratio must be in (0, 1), got %v", a.SubstitutionLowerRatio))
	}
	if a.SubstitutionUpperRatio <= 1 {
		err = multierr.Append(err, fmt.Errorf("adaptation.substitution_upper_ratio must be greater than 1, got %v", a.SubstitutionUpperRatio))
	}
	if a.MinDataForPredictions < 1 {
		err = multierr.Append(err, fmt.Errorf("adaptation.min_data_for_predictions must be at least 1, got %d", a.MinDataForPredictions))
	}

	if c.Plan.StartDate != "" {
		if _, perr := time.Parse("2006-01-02", c.Plan.StartDate); perr != nil {
			err = multierr.Append(err, fmt.Errorf("plan.start_date must be YYYY-MM-DD, got %q", c.Plan.StartDate))
		}
	}
	for i, ph := range c.Plan.Phases {
		if ph.Name == "" || ph.Weeks < 1 {
			err = multierr.Append(err, fmt.Errorf("plan.phases[%d] needs a name and at least one week", i))
		}
	}

	if c.Display.ChartDays < 7 {
		err = multierr.Append(err, fmt.Errorf("display.chart_days must be at least 7, got %d", c.Display.ChartDays))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}

	return err
}

// PlanStart returns the parsed plan start date, zero when unset
func (c *Config) PlanStart() time.Time {
	t, err := time.Parse("2006-01-02", c.Plan.StartDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LogFile returns the log file path, defaulting into the config directory
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pedalcoach.log"), nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pedalcoach"), nil
}
