package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/internal/ui"
)

const (
	barChartChar = "▇"
	noRecordsMsg = "Nothing watched in the specified time range"
	dateFormat   = "January 02, 2006"
)

// WriteJSON writes v as a single line of JSON.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

func formatDay(day string) string {
	t, err := time.Parse(timeutil.DayLayout, day)
	if err != nil {
		return day
	}

	return t.Format(dateFormat)
}

func getTotals(t models.Totals, streak models.Streak) string {
	header := fmt.Sprintf("%s\n", ui.Heading("Summary"))

	watched := fmt.Sprintf(
		"Time watched: %s\n",
		ui.Value(timeutil.FormatSeconds(t.WatchTimeSeconds)),
	)

	newTime := fmt.Sprintf(
		"New watch time: %s\n",
		ui.Value(timeutil.FormatSeconds(t.NewWatchTimeSeconds)),
	)

	unfiltered := fmt.Sprintf(
		"Including rewatches: %s\n",
		ui.Value(timeutil.FormatSeconds(t.UnfilteredWatchTimeSeconds)),
	)

	streaks := fmt.Sprintf(
		"Streak: %s (best %s, goal %s a day)\n",
		ui.Days(streak.Current),
		ui.Days(streak.Max),
		timeutil.FormatSeconds(streak.ThresholdSeconds),
	)

	return header + watched + newTime + unfiltered + streaks
}

func getBarChart(days []DayTotal) (string, error) {
	if len(days) == 0 {
		return "", nil
	}

	header := ui.Heading("\nDaily breakdown (minutes)")

	bars := make(pterm.Bars, 0, len(days))

	for _, d := range days {
		bars = append(bars, pterm.Bar{
			Label: formatDay(d.Date),
			Value: timeutil.Round(d.WatchTimeSeconds / 60),
		})
	}

	chart, err := pterm.DefaultBarChart.WithHorizontalBarCharacter(barChartChar).
		WithHorizontal().
		WithShowValue().
		WithBars(bars).
		Srender()
	if err != nil {
		return "", err
	}

	return header + chart, nil
}

func formatIntervals(list []interval.Interval) string {
	parts := make([]string, 0, len(list))

	for _, iv := range list {
		parts = append(parts, fmt.Sprintf(
			"%s-%s",
			timeutil.FormatSeconds(iv.Start),
			timeutil.FormatSeconds(iv.End),
		))
	}

	return strings.Join(parts, ", ")
}

func progress(watched, duration float64) string {
	if duration <= 0 {
		return "-"
	}

	return fmt.Sprintf("%d%%", timeutil.Round(100*watched/duration))
}

// Show renders s for the terminal.
func Show(w io.Writer, s *Summary) error {
	if len(s.Days) == 0 {
		return printEmpty(w, noRecordsMsg)
	}

	timePeriod := "Reporting period: " + formatDay(s.Start) + " - " + formatDay(s.End)

	header := pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(pterm.BgYellow)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Sprintln(timePeriod)

	chart, err := getBarChart(s.Days)
	if err != nil {
		return err
	}

	output := fmt.Sprint(
		header,
		getTotals(s.Totals, s.Streak),
		chart,
	)

	fmt.Fprintln(w, strings.TrimSpace(output))

	fmt.Fprintln(w, ui.Heading("\nItems"))

	return PrintItems(w, s.Items)
}
