package config

import (
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	DBPath   string
	Driver   string
	Goal     string
	Timezone string
	LogLevel string
}

// WithCLIConfig returns an Option that overlays settings from CLI flags.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			DBPath:   ctx.String("db"),
			Driver:   ctx.String("driver"),
			Goal:     ctx.String("goal"),
			Timezone: ctx.String("timezone"),
			LogLevel: ctx.String("log-level"),
		}

		return applyCLIOptions(c, opts)
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts CLIOptions) error {
	if opts.DBPath != "" {
		c.Storage.Path = opts.DBPath
	}

	if opts.Driver != "" {
		c.Storage.Driver = strings.ToLower(strings.TrimSpace(opts.Driver))
	}

	if opts.Goal != "" {
		goal, err := parseDuration(opts.Goal)
		if err != nil {
			return errInvalidCLIDuration.Fmt("goal", err)
		}

		c.Goals.Daily = goal
	}

	if opts.Timezone != "" {
		c.Display.Timezone = opts.Timezone
	}

	if opts.LogLevel != "" {
		c.Log.Level = opts.LogLevel
	}

	return nil
}

// parseDuration accepts duration strings, falling back to minutes when the
// unit is absent.
func parseDuration(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err == nil {
		return dur, nil
	}

	return time.ParseDuration(s + "m")
}
