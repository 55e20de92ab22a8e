package app

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/watchlog/internal/config"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/pathutil"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/internal/ui"
	"github.com/ayoisaiah/watchlog/report"
	"github.com/ayoisaiah/watchlog/stats"
)

const (
	envNoColor         = "NO_COLOR"
	envWatchlogNoColor = "WATCHLOG_NO_COLOR"
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// ingestAction replays a file of recorded playback events, or standard input
// when the file is "-".
func ingestAction(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		return cli.Exit("usage: watchlog ingest <events.jsonl | ->", 1)
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	in := config.Stdin

	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()

		in = f
	}

	n, err := replay(ctx.Context, e.db, e.cfg, e.logger, in)
	if err != nil {
		return err
	}

	report.EventsRecorded(n)

	return nil
}

// todayAction prints the records of the current day.
func todayAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	records, err := e.db.ListByDate(e.today())
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		if records == nil {
			records = []*models.DailyWatchRecord{}
		}

		return stats.WriteJSON(config.Stdout, records)
	}

	if err := stats.PrintRecords(config.Stdout, records); err != nil {
		return err
	}

	var totals models.Totals
	for _, rec := range records {
		totals.Add(rec)
	}

	if len(records) > 0 {
		fmt.Fprintf(
			config.Stdout,
			"Watched today: %s (%s new)\n",
			ui.Value(timeutil.FormatSeconds(totals.WatchTimeSeconds)),
			ui.Value(timeutil.FormatSeconds(totals.NewWatchTimeSeconds)),
		)
	}

	return nil
}

// statsAction reports watch time for the selected period.
func statsAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	filter, err := config.Filter(ctx, e.now)
	if err != nil {
		return err
	}

	summary, err := stats.BuildSummary(e.db, stats.Query{
		Start:            filter.StartDay,
		End:              filter.EndDay,
		Today:            e.today(),
		ThresholdSeconds: e.cfg.DailyGoalSeconds(),
		RecentLimit:      ctx.Int("limit"),
	})
	if err != nil {
		return err
	}

	if filter.JSON {
		return stats.WriteJSON(config.Stdout, summary)
	}

	return stats.Show(config.Stdout, summary)
}

// recentAction lists the most recently watched items.
func recentAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	items, err := stats.RecentlyWatched(e.db, ctx.Int("limit"))
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return stats.WriteJSON(config.Stdout, items)
	}

	return stats.PrintRecent(config.Stdout, items)
}

// segmentsAction prints the merged watched segments of each item in the
// selected period.
func segmentsAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	filter, err := config.Filter(ctx, e.now)
	if err != nil {
		return err
	}

	items, err := stats.AggregatedRange(e.db, filter.StartDay, filter.EndDay)
	if err != nil {
		return err
	}

	if filter.JSON {
		return stats.WriteJSON(config.Stdout, items)
	}

	return stats.PrintItems(config.Stdout, items)
}

// streakAction prints the current and longest streak.
func streakAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	streak, err := stats.StreaksFromStore(e.db, e.cfg.DailyGoalSeconds(), e.today())
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return stats.WriteJSON(config.Stdout, streak)
	}

	fmt.Fprintf(
		config.Stdout,
		"Current streak: %s\nLongest streak: %s\nDaily goal: %s of new watch time\n",
		ui.Days(streak.Current),
		ui.Days(streak.Max),
		timeutil.FormatSeconds(streak.ThresholdSeconds),
	)

	return nil
}

// clearAction deletes every record of a day.
func clearAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	date := e.today()

	if d := ctx.String("date"); d != "" {
		t, err := timeutil.FromStr(d, e.now)
		if err != nil {
			return err
		}

		date = timeutil.DayKey(t, e.cfg.Location())
	}

	n, err := stats.Clear(e.db, date, ctx.Bool("yes"), config.Stdin, config.Stdout)
	if err != nil {
		return err
	}

	e.logger.Info("records cleared", "date", date, "count", n)

	pterm.Info.Printfln("%d records removed for %s", n, date)

	return nil
}

// editConfigAction handles the edit-config command which opens the config
// file in the user's default text editor.
func editConfigAction(_ *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == "windows" {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cmd := exec.Command(editor, pathutil.ConfigFilePath())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

// initAction asks for the main settings and writes them to the config file.
func initAction(_ *cli.Context) error {
	cfg, err := config.New(
		config.WithViperConfig(pathutil.ConfigFilePath()),
		config.WithPromptConfig(),
	)
	if err != nil {
		return err
	}

	if err := config.Save(pathutil.ConfigFilePath(), cfg); err != nil {
		return err
	}

	pterm.Success.Printfln("configuration saved to %s", pathutil.ConfigFilePath())

	return nil
}

func beforeAction(ctx *cli.Context) error {
	if err := pathutil.Initialize(); err != nil {
		return err
	}

	// Override the default help template
	cli.AppHelpTemplate = helpText()

	// Override the default version printer
	oldVersionPrinter := cli.VersionPrinter
	cli.VersionPrinter = func(c *cli.Context) {
		oldVersionPrinter(c)
		fmt.Printf("%s/releases/%s\n", repoURL, c.App.Version)
	}

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if WATCHLOG_NO_COLOR is set
	if _, exists := os.LookupEnv(envWatchlogNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}
