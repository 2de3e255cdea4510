// Package config provides the YAML configuration model and load/save
// behavior, including first-run config creation and 0600 permissions.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"calscope/internal/schedule"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS endpoint: an http(s) URL or a local file path.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in reports.
	Name string `yaml:"name" json:"name"`
	// Color is an optional display color carried through to reports.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// WorkingHoursConfig holds the daily working window as "HH:MM" strings.
type WorkingHoursConfig struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Parse validates and converts the window into the engine's representation.
// This is the one place hour/minute validity is enforced; the engine
// documents it as a precondition and does not re-check.
func (w WorkingHoursConfig) Parse() (schedule.WorkingHours, error) {
	sh, sm, err := parseClock(w.Start)
	if err != nil {
		return schedule.WorkingHours{}, fmt.Errorf("working_hours.start: %w", err)
	}
	eh, em, err := parseClock(w.End)
	if err != nil {
		return schedule.WorkingHours{}, fmt.Errorf("working_hours.end: %w", err)
	}
	return schedule.WorkingHours{
		StartHour:   sh,
		StartMinute: sm,
		EndHour:     eh,
		EndMinute:   em,
	}, nil
}

func parseClock(v string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q is not in HH:MM form", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%q has an invalid hour", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%q has an invalid minute", v)
	}
	return hour, minute, nil
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used as the canonical display zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WorkingHours is the daily window searched for free time.
	WorkingHours WorkingHoursConfig `yaml:"working_hours" json:"working_hours"`

	// MinFreeMinutes suppresses free slots shorter than this many minutes.
	MinFreeMinutes int `yaml:"min_free_minutes" json:"min_free_minutes"`

	// HorizonDays is the default number of days a report covers when the
	// caller gives no explicit range.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// ShowEmptyDates emits a day header even for days with no events.
	ShowEmptyDates bool `yaml:"show_empty_dates" json:"show_empty_dates"`

	// Me lists the email addresses that identify the current user among
	// event attendees. Events the user declined do not count as busy.
	Me []string `yaml:"me" json:"me"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") used to
	// refresh feeds in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:       "Local",
		WorkingHours:   WorkingHoursConfig{Start: "09:00", End: "17:00"},
		MinFreeMinutes: 30,
		HorizonDays:    7,
		ShowEmptyDates: false,
		Me:             []string{},
		ICS:            []ICSConfig{},
		Listen:         "127.0.0.1:8080",
		RefreshCron:    "*/15 * * * *",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.WorkingHours.Start == "" {
		c.WorkingHours.Start = "09:00"
	}
	if c.WorkingHours.End == "" {
		c.WorkingHours.End = "17:00"
	}
	if c.MinFreeMinutes < 0 {
		c.MinFreeMinutes = 0
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 7
	}
	if c.Me == nil {
		c.Me = []string{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (parent
// directory created as needed, 0600 perms) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename)
// with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calscope-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
