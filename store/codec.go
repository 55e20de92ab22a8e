package store

import (
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
)

var (
	errInvalidMediaID = &apperr.Error{
		Message: "invalid media id: %q",
	}

	errInvalidDate = &apperr.Error{
		Message: "invalid record date: %q",
	}

	// ErrCorruptRecord reports a stored record that could not be decoded.
	// Scans skip such records. Direct lookups return it so callers can
	// decide to rebuild the record from scratch.
	ErrCorruptRecord = &apperr.Error{
		Message: "stored watch record is corrupt",
	}
)

// storedRecord is the serialised form of a record. Interval lists are kept
// as compact array strings.
type storedRecord struct {
	LastWatchedAt              time.Time `json:"last_watched_at"`
	MediaID                    string    `json:"media_id"`
	Date                       string    `json:"date"`
	AllTimeIntervals           string    `json:"all_time_intervals"`
	TodayIntervals             string    `json:"today_intervals"`
	WatchTimeSeconds           float64   `json:"watch_time_seconds"`
	NewWatchTimeSeconds        float64   `json:"new_watch_time_seconds"`
	UnfilteredWatchTimeSeconds float64   `json:"unfiltered_watch_time_seconds"`
	LastWatchPositionSeconds   float64   `json:"last_watch_position_seconds"`
	DurationSeconds            float64   `json:"duration_seconds"`
}

// ValidateKey checks that a record can be stored under (mediaID, date).
func ValidateKey(mediaID, date string) error {
	if mediaID == "" || strings.ContainsRune(mediaID, keySep) {
		return errInvalidMediaID.Fmt(mediaID)
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errInvalidDate.Fmt(date)
	}

	return nil
}

// DecodeIntervals parses a stored interval list. Corrupt payloads are logged
// and treated as empty.
func DecodeIntervals(
	logger *slog.Logger,
	mediaID, date, field, payload string,
) []interval.Interval {
	list, err := interval.Decode(payload)
	if err != nil {
		logger.Warn(
			"discarding corrupt interval data",
			slog.String("media_id", mediaID),
			slog.String("date", date),
			slog.String("field", field),
			slog.Any("error", err),
		)

		return nil
	}

	return interval.Merge(list)
}

func encodeRecord(rec *models.DailyWatchRecord) ([]byte, error) {
	s := storedRecord{
		LastWatchedAt:              rec.LastWatchedAt,
		MediaID:                    rec.MediaID,
		Date:                       rec.Date,
		AllTimeIntervals:           interval.Encode(rec.AllTimeIntervals),
		TodayIntervals:             interval.Encode(rec.TodayIntervals),
		WatchTimeSeconds:           rec.WatchTimeSeconds,
		NewWatchTimeSeconds:        rec.NewWatchTimeSeconds,
		UnfilteredWatchTimeSeconds: rec.UnfilteredWatchTimeSeconds,
		LastWatchPositionSeconds:   rec.LastWatchPositionSeconds,
		DurationSeconds:            rec.DurationSeconds,
	}

	return json.Marshal(s)
}

func decodeRecord(logger *slog.Logger, b []byte) (*models.DailyWatchRecord, error) {
	var s storedRecord

	if err := json.Unmarshal(b, &s); err != nil {
		return nil, ErrCorruptRecord.Wrap(err)
	}

	return &models.DailyWatchRecord{
		LastWatchedAt: s.LastWatchedAt,
		MediaID:       s.MediaID,
		Date:          s.Date,
		AllTimeIntervals: DecodeIntervals(
			logger, s.MediaID, s.Date, "all_time_intervals", s.AllTimeIntervals,
		),
		TodayIntervals: DecodeIntervals(
			logger, s.MediaID, s.Date, "today_intervals", s.TodayIntervals,
		),
		WatchTimeSeconds:           s.WatchTimeSeconds,
		NewWatchTimeSeconds:        s.NewWatchTimeSeconds,
		UnfilteredWatchTimeSeconds: s.UnfilteredWatchTimeSeconds,
		LastWatchPositionSeconds:   s.LastWatchPositionSeconds,
		DurationSeconds:            s.DurationSeconds,
	}, nil
}
