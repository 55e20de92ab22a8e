// Package timeutil provides utility functions and types for working with
// calendar days and time-related operations.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// DayLayout is the format of a calendar day key.
const DayLayout = "2006-01-02"

const (
	HoursInADay      = 24
	MaxHoursInAMonth = 744  // 31 day months
	MaxHoursInAYear  = 8784 // Leap years
)

type Period string

const (
	PeriodAllTime   Period = "all-time"
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	Period7Days     Period = "7days"
	Period14Days    Period = "14days"
	Period30Days    Period = "30days"
	Period90Days    Period = "90days"
	Period180Days   Period = "180days"
	Period365Days   Period = "365days"
)

var Range = map[Period]int{
	PeriodAllTime:   0,
	PeriodToday:     0,
	PeriodYesterday: -1,
	Period7Days:     -6,
	Period14Days:    -13,
	Period30Days:    -29,
	Period90Days:    -89,
	Period180Days:   -179,
	Period365Days:   -364,
}

var PeriodCollection = []Period{
	PeriodAllTime,
	PeriodToday,
	PeriodYesterday,
	Period7Days,
	Period14Days,
	Period30Days,
	Period90Days,
	Period180Days,
	Period365Days,
}

// Round rounds a time value in seconds, minutes, or hours to the nearest integer.
func Round(t float64) int {
	return int(math.Round(t))
}

// DayKey returns the calendar day of t in loc as yyyy-mm-dd.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	return t.In(loc).Format(DayLayout)
}

// ParseDay parses a yyyy-mm-dd day key as midnight in loc.
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	return time.ParseInLocation(DayLayout, day, loc)
}

// AddDays shifts a day key by n calendar days.
func AddDays(day string, n int) (string, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return "", err
	}

	return t.AddDate(0, 0, n).Format(DayLayout), nil
}

// NextDay returns the day after a day key. It returns an empty string for
// malformed input.
func NextDay(day string) string {
	next, err := AddDays(day, 1)
	if err != nil {
		return ""
	}

	return next
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	return RoundToStart(t.AddDate(0, 0, -(weekday - 1)))
}

// StartOfMonth returns the first day of the month containing t.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the month for the specified time.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PeriodRange returns the first and last day keys covered by period relative
// to now. The all-time period starts at the zero day key "".
func PeriodRange(period Period, now time.Time) (start, end string) {
	end = now.Format(DayLayout)

	switch period {
	case PeriodAllTime:
		return "", end
	case PeriodYesterday:
		day := now.AddDate(0, 0, -1).Format(DayLayout)
		return day, day
	default:
		return now.AddDate(0, 0, Range[period]).Format(DayLayout), end
	}
}

// FromStr parses a date in any of the formats accepted by go-dateparser,
// including relative expressions such as "3 days ago".
func FromStr(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.ParseInLocation(DayLayout, s, now.Location()); err == nil {
		return t, nil
	}

	cfg := &dps.Configuration{
		CurrentTime: now,
	}

	dt, err := dps.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q: %w", s, err)
	}

	return dt.Time, nil
}

// FormatSeconds renders a number of seconds as a compact duration such as
// 1h05m or 42s.
func FormatSeconds(sec float64) string {
	d := time.Duration(math.Round(sec)) * time.Second

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ToKey converts a time value to a sortable database key.
func ToKey(t time.Time) []byte {
	return []byte(t.Format(time.RFC3339Nano))
}
