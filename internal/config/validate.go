package config

import (
	"slices"
	"strings"
	"time"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if c.Tracking.MinSegment <= 0 {
		return errInvalidThreshold.Fmt("tracking.min_segment", c.Tracking.MinSegment)
	}

	if c.Tracking.FinishTolerance < 0 {
		return errInvalidThreshold.Fmt("tracking.finish_tolerance", c.Tracking.FinishTolerance)
	}

	if c.Tracking.SeekThreshold <= 0 {
		return errInvalidThreshold.Fmt("tracking.seek_threshold", c.Tracking.SeekThreshold)
	}

	if c.Tracking.TimeScale <= 0 {
		return errInvalidThreshold.Fmt("tracking.time_scale", c.Tracking.TimeScale)
	}

	if c.Tracking.FlushTimeout <= 0 {
		return errInvalidThreshold.Fmt("tracking.flush_timeout", c.Tracking.FlushTimeout)
	}

	if c.Goals.Daily <= 0 {
		return errInvalidThreshold.Fmt("goals.daily", c.Goals.Daily)
	}

	if c.Storage.Driver != DriverBolt && c.Storage.Driver != DriverSQLite {
		return errUnknownDriver.Fmt(c.Storage.Driver)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return errUnknownLogLevel.Fmt(c.Log.Level)
	}

	if c.Display.Timezone != "" {
		if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
			return errUnknownTimezone.Fmt(c.Display.Timezone)
		}
	}

	return nil
}
