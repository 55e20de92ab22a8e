// Package config loads watchlog settings from the config file and
// command-line flags
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayoisaiah/watchlog/session"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Storage  StorageConfig  `mapstructure:"storage"`
		Log      LogConfig      `mapstructure:"log"`
		Display  DisplayConfig  `mapstructure:"display"`
		Tracking TrackingConfig `mapstructure:"tracking"`
		Goals    GoalsConfig    `mapstructure:"goals"`
	}

	// TrackingConfig holds the session tracker thresholds.
	TrackingConfig struct {
		MinSegment      time.Duration `mapstructure:"min_segment"`
		FinishTolerance time.Duration `mapstructure:"finish_tolerance"`
		FlushTimeout    time.Duration `mapstructure:"flush_timeout"`
		SeekThreshold   float64       `mapstructure:"seek_threshold"`
		TimeScale       float64       `mapstructure:"time_scale"`
	}

	// GoalsConfig holds the streak settings.
	GoalsConfig struct {
		Daily time.Duration `mapstructure:"daily"`
	}

	// StorageConfig selects the persistence backend.
	StorageConfig struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	}

	// LogConfig holds logging settings.
	LogConfig struct {
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	}

	// DisplayConfig holds display-related settings.
	DisplayConfig struct {
		Timezone  string `mapstructure:"timezone"`
		DarkTheme bool   `mapstructure:"dark_theme"`
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.0"

const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// New creates a new Config and applies options in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}

// SessionOptions converts the tracking settings to session tracker options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		MinSegment:      c.Tracking.MinSegment.Seconds(),
		FinishTolerance: c.Tracking.FinishTolerance.Seconds(),
		SeekThreshold:   c.Tracking.SeekThreshold,
		TimeScale:       c.Tracking.TimeScale,
	}
}

// Location returns the time zone used to bucket watch time into calendar
// days. An empty setting means the device's local zone.
func (c *Config) Location() *time.Location {
	if c.Display.Timezone == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}

// DailyGoalSeconds returns the streak threshold in seconds.
func (c *Config) DailyGoalSeconds() float64 {
	return c.Goals.Daily.Seconds()
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"driver=%s path=%s goal=%s tz=%s",
		c.Storage.Driver,
		c.Storage.Path,
		c.Goals.Daily,
		c.Location(),
	)
}
