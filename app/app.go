package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/watchlog/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the watchlog app instance.
func Get() *cli.App {
	watchlogApp := &cli.App{
		Name: "watchlog",
		Authors: []*cli.Author{
			{
				Name:  "Ayooluwa Isaiah",
				Email: "ayo@freshman.tech",
			},
		},
		Usage: `
		watchlog records what you watch from media player events and reports how 
		much of it was new, day by day. Rewatched segments are never counted twice.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Record a file of playback events (JSON lines, '-' for stdin)",
				ArgsUsage: "<events.jsonl>",
				Action:    ingestAction,
			},
			{
				Name:   "today",
				Usage:  "Show what was watched today",
				Flags:  []cli.Flag{jsonFlag},
				Action: todayAction,
			},
			{
				Name: "stats",
				Usage: `
				Summarise watch time, new watch time, and streaks. Defaults to a 
				reporting period of 7 days`,
				Flags:  append([]cli.Flag{limitFlag}, rangeFlags...),
				Action: statsAction,
			},
			{
				Name:   "recent",
				Usage:  "List recently watched items with their resume positions",
				Flags:  []cli.Flag{limitFlag, jsonFlag},
				Action: recentAction,
			},
			{
				Name:   "segments",
				Usage:  "Show the merged segments watched of each item in a period",
				Flags:  rangeFlags,
				Action: segmentsAction,
			},
			{
				Name:   "streak",
				Usage:  "Show the current and longest streak of days meeting the daily goal",
				Flags:  []cli.Flag{jsonFlag},
				Action: streakAction,
			},
			{
				Name:   "clear",
				Usage:  "Delete every record of a day",
				Flags:  []cli.Flag{dateFlag, yesFlag},
				Action: clearAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
			{
				Name:   "init",
				Usage:  "Set up the daily goal and storage backend interactively",
				Action: initAction,
			},
		},
		Flags: []cli.Flag{
			dbFlag,
			driverFlag,
			goalFlag,
			timezoneFlag,
			logLevelFlag,
			noColorFlag,
		},
		Before: beforeAction,
	}

	return watchlogApp
}
