package config

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// PromptOptions holds the user's responses to the configuration prompts.
type PromptOptions struct {
	Driver       string
	DailyMinutes int
}

// WithPromptConfig returns an Option that configures the main settings
// through an interactive form.
func WithPromptConfig() Option {
	return func(c *Config) error {
		opts, err := promptUser(c)
		if err != nil {
			return fmt.Errorf("user prompt failed: %w", err)
		}

		return applyPromptOptions(c, opts)
	}
}

// promptUser handles the interactive configuration process.
func promptUser(c *Config) (PromptOptions, error) {
	opts := PromptOptions{
		Driver:       c.Storage.Driver,
		DailyMinutes: int(c.Goals.Daily.Minutes()),
	}

	_ = putils.BulletListFromString(`Follow the prompts below to configure watchlog.
Select your preferred value, or press ENTER to accept the defaults.
Edit the config file with 'watchlog edit-config' to change any settings.`, " ").
		Render()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Daily watch goal (counts towards your streak)").
				Options(
					huh.NewOption("15 minutes", 15),
					huh.NewOption("30 minutes", 30),
					huh.NewOption("45 minutes", 45),
					huh.NewOption("60 minutes", 60),
					huh.NewOption("90 minutes", 90),
				).
				Value(&opts.DailyMinutes),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage backend").
				Options(
					huh.NewOption("BoltDB (single file, default)", DriverBolt),
					huh.NewOption("SQLite", DriverSQLite),
				).
				Value(&opts.Driver),
		),
	)

	pterm.Println()

	if err := form.Run(); err != nil {
		return opts, fmt.Errorf("form interaction failed: %w", err)
	}

	return opts, nil
}

// applyPromptOptions applies the user's prompt responses to the configuration.
func applyPromptOptions(c *Config, opts PromptOptions) error {
	if opts.DailyMinutes > 0 {
		c.Goals.Daily = time.Duration(opts.DailyMinutes) * time.Minute
	}

	if opts.Driver != "" {
		c.Storage.Driver = opts.Driver
	}

	return nil
}
