// Package sqlite implements the watch record store on top of SQLite
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS watch_records (
	media_id TEXT NOT NULL,
	date TEXT NOT NULL,
	all_time_intervals TEXT NOT NULL DEFAULT '[]',
	today_intervals TEXT NOT NULL DEFAULT '[]',
	watch_time_seconds REAL NOT NULL DEFAULT 0,
	new_watch_time_seconds REAL NOT NULL DEFAULT 0,
	unfiltered_watch_time_seconds REAL NOT NULL DEFAULT 0,
	last_watch_position_seconds REAL NOT NULL DEFAULT 0,
	duration_seconds REAL NOT NULL DEFAULT 0,
	last_watched_at TEXT NOT NULL,
	PRIMARY KEY (media_id, date)
);
CREATE INDEX IF NOT EXISTS idx_watch_records_date ON watch_records(date, media_id);
`

const selectColumns = `
SELECT media_id, date, all_time_intervals, today_intervals,
	watch_time_seconds, new_watch_time_seconds, unfiltered_watch_time_seconds,
	last_watch_position_seconds, duration_seconds, last_watched_at
FROM watch_records`

// Store is a SQLite backed watch record store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.DB = (*Store)(nil)

// Options tunes the SQLite connection.
type Options struct {
	BusyTimeout time.Duration
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string, options Options, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}

	// writes are serialised per process
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", options.BusyTimeout.Milliseconds()),
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, apperr.ErrTransientStore.Wrap(err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{db: db, logger: logger}

	if err := s.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// EnsureSchema creates the records table and its indexes if missing.
func (s *Store) EnsureSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return apperr.ErrTransientStore.Wrap(err)
	}

	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Store) Upsert(rec *models.DailyWatchRecord) error {
	if err := store.ValidateKey(rec.MediaID, rec.Date); err != nil {
		return err
	}

	_, err := s.db.Exec(`
INSERT INTO watch_records (
	media_id, date, all_time_intervals, today_intervals,
	watch_time_seconds, new_watch_time_seconds, unfiltered_watch_time_seconds,
	last_watch_position_seconds, duration_seconds, last_watched_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(media_id, date) DO UPDATE SET
	all_time_intervals = excluded.all_time_intervals,
	today_intervals = excluded.today_intervals,
	watch_time_seconds = excluded.watch_time_seconds,
	new_watch_time_seconds = excluded.new_watch_time_seconds,
	unfiltered_watch_time_seconds = excluded.unfiltered_watch_time_seconds,
	last_watch_position_seconds = excluded.last_watch_position_seconds,
	duration_seconds = excluded.duration_seconds,
	last_watched_at = excluded.last_watched_at`,
		rec.MediaID,
		rec.Date,
		interval.Encode(rec.AllTimeIntervals),
		interval.Encode(rec.TodayIntervals),
		rec.WatchTimeSeconds,
		rec.NewWatchTimeSeconds,
		rec.UnfilteredWatchTimeSeconds,
		rec.LastWatchPositionSeconds,
		rec.DurationSeconds,
		formatTime(rec.LastWatchedAt),
	)
	if err != nil {
		return apperr.ErrTransientStore.Wrap(err)
	}

	return nil
}

// skipRow logs a row whose columns could not be converted. Scans carry on
// with the remaining rows.
func (s *Store) skipRow(err error) {
	s.logger.Warn(
		"skipping corrupt watch record",
		slog.Any("error", store.ErrCorruptRecord.Wrap(err)),
	)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecord(row scanner) (*models.DailyWatchRecord, error) {
	var (
		rec              models.DailyWatchRecord
		allTime, today   string
		lastWatchedAtRaw string
	)

	err := row.Scan(
		&rec.MediaID,
		&rec.Date,
		&allTime,
		&today,
		&rec.WatchTimeSeconds,
		&rec.NewWatchTimeSeconds,
		&rec.UnfilteredWatchTimeSeconds,
		&rec.LastWatchPositionSeconds,
		&rec.DurationSeconds,
		&lastWatchedAtRaw,
	)
	if err != nil {
		return nil, err
	}

	rec.AllTimeIntervals = store.DecodeIntervals(
		s.logger, rec.MediaID, rec.Date, "all_time_intervals", allTime,
	)
	rec.TodayIntervals = store.DecodeIntervals(
		s.logger, rec.MediaID, rec.Date, "today_intervals", today,
	)
	rec.LastWatchedAt = parseTime(lastWatchedAtRaw)

	return &rec, nil
}

func (s *Store) queryRecords(query string, args ...any) ([]*models.DailyWatchRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}
	defer rows.Close()

	var records []*models.DailyWatchRecord

	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			s.skipRow(err)
			continue
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}

	return records, nil
}

func (s *Store) queryOne(query string, args ...any) (*models.DailyWatchRecord, error) {
	rec, err := s.scanRecord(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}

	return rec, nil
}

func (s *Store) GetRecord(mediaID, date string) (*models.DailyWatchRecord, error) {
	return s.queryOne(selectColumns+` WHERE media_id = ? AND date = ?`, mediaID, date)
}

func (s *Store) GetLatest(mediaID string) (*models.DailyWatchRecord, error) {
	return s.queryOne(
		selectColumns+` WHERE media_id = ? ORDER BY date DESC LIMIT 1`,
		mediaID,
	)
}

func (s *Store) GetHistory(mediaID string) ([]models.HistoryPoint, error) {
	rows, err := s.db.Query(
		`SELECT date, watch_time_seconds FROM watch_records WHERE media_id = ? ORDER BY date`,
		mediaID,
	)
	if err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}
	defer rows.Close()

	var history []models.HistoryPoint

	for rows.Next() {
		var p models.HistoryPoint
		if err := rows.Scan(&p.Date, &p.WatchTimeSeconds); err != nil {
			return nil, apperr.ErrTransientStore.Wrap(err)
		}

		history = append(history, p)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}

	return history, nil
}

func (s *Store) TouchTimestamp(mediaID, date string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE watch_records SET last_watched_at = ? WHERE media_id = ? AND date = ?`,
		formatTime(at),
		mediaID,
		date,
	)
	if err != nil {
		return apperr.ErrTransientStore.Wrap(err)
	}

	return nil
}

func (s *Store) DeleteForDate(date string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM watch_records WHERE date = ?`, date)
	if err != nil {
		return 0, apperr.ErrTransientStore.Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.ErrTransientStore.Wrap(err)
	}

	return int(n), nil
}

func (s *Store) ListByDate(date string) ([]*models.DailyWatchRecord, error) {
	return s.queryRecords(selectColumns+` WHERE date = ? ORDER BY media_id`, date)
}

func (s *Store) ListRange(startDay, endDay string) ([]*models.DailyWatchRecord, error) {
	return s.queryRecords(
		selectColumns+` WHERE date >= ? AND date <= ? ORDER BY date, media_id`,
		startDay,
		endDay,
	)
}

func (s *Store) DailySeries() (map[string]models.Totals, error) {
	rows, err := s.db.Query(`
SELECT date, SUM(watch_time_seconds), SUM(new_watch_time_seconds),
	SUM(unfiltered_watch_time_seconds)
FROM watch_records GROUP BY date`)
	if err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}
	defer rows.Close()

	series := make(map[string]models.Totals)

	for rows.Next() {
		var (
			date string
			t    models.Totals
		)

		err := rows.Scan(
			&date,
			&t.WatchTimeSeconds,
			&t.NewWatchTimeSeconds,
			&t.UnfilteredWatchTimeSeconds,
		)
		if err != nil {
			return nil, apperr.ErrTransientStore.Wrap(err)
		}

		series[date] = t
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}

	return series, nil
}

func (s *Store) Recent(limit int) ([]models.RecentItem, error) {
	rows, err := s.db.Query(`
SELECT media_id, date, last_watch_position_seconds, duration_seconds, last_watched_at
FROM watch_records`)
	if err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}
	defer rows.Close()

	latest := make(map[string]models.RecentItem)

	for rows.Next() {
		var (
			item models.RecentItem
			at   string
		)

		err := rows.Scan(
			&item.MediaID,
			&item.Date,
			&item.LastWatchPositionSeconds,
			&item.DurationSeconds,
			&at,
		)
		if err != nil {
			s.skipRow(err)
			continue
		}

		item.LastWatchedAt = parseTime(at)

		if prev, ok := latest[item.MediaID]; ok &&
			!item.LastWatchedAt.After(prev.LastWatchedAt) {
			continue
		}

		latest[item.MediaID] = item
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.ErrTransientStore.Wrap(err)
	}

	return store.SortRecent(latest, limit), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}
