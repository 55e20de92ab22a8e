package models

import (
	"time"

	"github.com/ayoisaiah/watchlog/internal/interval"
)

// DailyWatchRecord is the persisted watch state of one media item on one
// calendar day. It is unique by (MediaID, Date).
type DailyWatchRecord struct {
	LastWatchedAt time.Time `json:"last_watched_at"`
	MediaID       string    `json:"media_id"`
	// Date is the local calendar day in yyyy-mm-dd form
	Date string `json:"date"`
	// AllTimeIntervals is the union of every interval watched for the item
	// up to and including Date
	AllTimeIntervals []interval.Interval `json:"all_time_intervals"`
	// TodayIntervals is the union of the intervals watched on Date
	TodayIntervals             []interval.Interval `json:"today_intervals"`
	WatchTimeSeconds           float64             `json:"watch_time_seconds"`
	NewWatchTimeSeconds        float64             `json:"new_watch_time_seconds"`
	UnfilteredWatchTimeSeconds float64             `json:"unfiltered_watch_time_seconds"`
	LastWatchPositionSeconds   float64             `json:"last_watch_position_seconds"`
	DurationSeconds            float64             `json:"duration_seconds"`
}

// HistoryPoint is the watch time of one media item on one day.
type HistoryPoint struct {
	Date             string  `json:"date"`
	WatchTimeSeconds float64 `json:"watch_time_seconds"`
}

// Totals sums the watch metrics of every item for a day or range.
type Totals struct {
	WatchTimeSeconds           float64 `json:"watch_time_seconds"`
	NewWatchTimeSeconds        float64 `json:"new_watch_time_seconds"`
	UnfilteredWatchTimeSeconds float64 `json:"unfiltered_watch_time_seconds"`
}

// Add accumulates the metrics of rec.
func (t *Totals) Add(rec *DailyWatchRecord) {
	t.WatchTimeSeconds += rec.WatchTimeSeconds
	t.NewWatchTimeSeconds += rec.NewWatchTimeSeconds
	t.UnfilteredWatchTimeSeconds += rec.UnfilteredWatchTimeSeconds
}

// ItemAggregate is the per-item summary of a date range.
type ItemAggregate struct {
	LastWatchedAt time.Time `json:"last_watched_at"`
	MediaID       string    `json:"media_id"`
	Totals
	// Intervals merges the TodayIntervals of every day in the range
	Intervals       []interval.Interval `json:"intervals"`
	Days            int                 `json:"days"`
	DurationSeconds float64             `json:"duration_seconds"`
}

// RecentItem is a recently watched media item.
type RecentItem struct {
	LastWatchedAt            time.Time `json:"last_watched_at"`
	MediaID                  string    `json:"media_id"`
	Date                     string    `json:"date"`
	LastWatchPositionSeconds float64   `json:"last_watch_position_seconds"`
	DurationSeconds          float64   `json:"duration_seconds"`
}

// Streak holds the current and longest run of days meeting the daily goal.
type Streak struct {
	Current          int     `json:"current"`
	Max              int     `json:"max"`
	ThresholdSeconds float64 `json:"threshold_seconds"`
}

// EventType identifies a recorded playback event.
type EventType string

const (
	EventOpen      EventType = "open"
	EventPlay      EventType = "play"
	EventPause     EventType = "pause"
	EventPosition  EventType = "position"
	EventEnded     EventType = "ended"
	EventClose     EventType = "close"
	EventLifecycle EventType = "lifecycle"
)

// Event is one playback event as captured from a player. Position, Rate,
// Duration, and State are only meaningful for some event types.
type Event struct {
	Time     time.Time `json:"time"`
	MediaID  string    `json:"media_id"`
	Type     EventType `json:"type"`
	State    string    `json:"state,omitempty"`
	Position float64   `json:"position,omitempty"`
	Rate     float64   `json:"rate,omitempty"`
	Duration float64   `json:"duration,omitempty"`
}
