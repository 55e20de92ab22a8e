package store

import (
	"time"

	"github.com/ayoisaiah/watchlog/internal/models"
)

// DB is the persistence store for daily watch records. Records are unique by
// (media ID, date). Lookups that find nothing return a nil record and a nil
// error. I/O failures are reported as apperr.ErrTransientStore.
type DB interface {
	// Upsert inserts rec or overwrites the stored record for the same
	// (media ID, date). Merging is the caller's responsibility.
	Upsert(rec *models.DailyWatchRecord) error
	// GetRecord returns the record for mediaID on date
	GetRecord(mediaID, date string) (*models.DailyWatchRecord, error)
	// GetLatest returns the most recent record for mediaID by date
	GetLatest(mediaID string) (*models.DailyWatchRecord, error)
	// GetHistory returns the ascending per-day watch time of mediaID
	GetHistory(mediaID string) ([]models.HistoryPoint, error)
	// TouchTimestamp updates LastWatchedAt without altering intervals or
	// metrics. It is a no-op if the record does not exist.
	TouchTimestamp(mediaID, date string, at time.Time) error
	// DeleteForDate removes every record stored for date and reports how
	// many were removed
	DeleteForDate(date string) (int, error)
	// ListByDate returns every record for date ordered by media ID
	ListByDate(date string) ([]*models.DailyWatchRecord, error)
	// ListRange returns every record whose date lies in [startDay, endDay],
	// ordered by date then media ID. An empty startDay means no lower bound.
	ListRange(startDay, endDay string) ([]*models.DailyWatchRecord, error)
	// DailySeries returns the summed metrics of every stored date
	DailySeries() (map[string]models.Totals, error)
	// Recent returns the most recently watched distinct media items, most
	// recent first
	Recent(limit int) ([]models.RecentItem, error)
	// Close releases the underlying database
	Close() error
}
