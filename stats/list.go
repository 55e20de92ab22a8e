package stats

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/internal/ui"
)

const timestampFormat = "January 02, 2006 03:04 PM"

func printEmpty(w io.Writer, msg string) error {
	pterm.Info.WithWriter(w).Println(msg)
	return nil
}

// PrintRecords prints a table of daily records.
func PrintRecords(w io.Writer, records []*models.DailyWatchRecord) error {
	if len(records) == 0 {
		return printEmpty(w, noRecordsMsg)
	}

	data := [][]string{
		{"#", "MEDIA", "DATE", "WATCHED", "NEW", "RESUME AT", "SEGMENTS"},
	}

	for i, rec := range records {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			rec.MediaID,
			rec.Date,
			ui.Value(timeutil.FormatSeconds(rec.WatchTimeSeconds)),
			timeutil.FormatSeconds(rec.NewWatchTimeSeconds),
			timeutil.FormatSeconds(rec.LastWatchPositionSeconds),
			formatIntervals(rec.TodayIntervals),
		})
	}

	return ui.Table(w, data)
}

// PrintItems prints a table of per-item range aggregates.
func PrintItems(w io.Writer, items []models.ItemAggregate) error {
	if len(items) == 0 {
		return printEmpty(w, noRecordsMsg)
	}

	data := [][]string{
		{"#", "MEDIA", "DAYS", "WATCHED", "NEW", "COVERED", "SEGMENTS"},
	}

	for i := range items {
		item := items[i]

		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			item.MediaID,
			fmt.Sprintf("%d", item.Days),
			ui.Value(timeutil.FormatSeconds(item.WatchTimeSeconds)),
			timeutil.FormatSeconds(item.NewWatchTimeSeconds),
			progress(interval.Total(item.Intervals), item.DurationSeconds),
			formatIntervals(item.Intervals),
		})
	}

	return ui.Table(w, data)
}

// PrintRecent prints a table of recently watched items.
func PrintRecent(w io.Writer, items []models.RecentItem) error {
	if len(items) == 0 {
		return printEmpty(w, "Nothing watched yet")
	}

	data := [][]string{
		{"#", "MEDIA", "LAST WATCHED", "RESUME AT", "LENGTH"},
	}

	for i, item := range items {
		length := "-"
		if item.DurationSeconds > 0 {
			length = timeutil.FormatSeconds(item.DurationSeconds)
		}

		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			item.MediaID,
			item.LastWatchedAt.Local().Format(timestampFormat),
			timeutil.FormatSeconds(item.LastWatchPositionSeconds),
			length,
		})
	}

	return ui.Table(w, data)
}
