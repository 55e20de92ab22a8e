// Package store persists daily watch records
package store

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/osutil"
)

const (
	recordBucket = "records"
	dateBucket   = "dates"
	metaBucket   = "meta"

	keySep = '\x00'
)

var errWatchlogRunning = errors.New(
	"is watchlog already running? Only one process may open the database at a time",
)

// Client is a BoltDB database client. Records live in the records bucket
// under "<media_id>\x00<date>" and are indexed by "<date>\x00<media_id>" in
// the dates bucket.
type Client struct {
	db     *bolt.DB
	logger *slog.Logger
}

var _ DB = (*Client)(nil)

func recordKey(mediaID, date string) []byte {
	return []byte(mediaID + string(keySep) + date)
}

func dateKey(date, mediaID string) []byte {
	return []byte(date + string(keySep) + mediaID)
}

// splitKey returns the two halves of a composite key.
func splitKey(k []byte) (first, second string) {
	before, after, _ := strings.Cut(string(k), string(keySep))
	return before, after
}

func transient(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	return apperr.ErrTransientStore.Wrap(err)
}

func (c *Client) Upsert(rec *models.DailyWatchRecord) error {
	if err := ValidateKey(rec.MediaID, rec.Date); err != nil {
		return err
	}

	value, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(recordBucket)).
			Put(recordKey(rec.MediaID, rec.Date), value)
		if err != nil {
			return err
		}

		return tx.Bucket([]byte(dateBucket)).
			Put(dateKey(rec.Date, rec.MediaID), []byte{})
	})

	return transient(err)
}

func (c *Client) get(tx *bolt.Tx, key []byte) (*models.DailyWatchRecord, error) {
	v := tx.Bucket([]byte(recordBucket)).Get(key)
	if v == nil {
		return nil, nil
	}

	return decodeRecord(c.logger, v)
}

// decodeOrSkip decodes a record found by a scan. Undecodable records are
// logged and reported as nil so one bad row does not abort the scan.
func (c *Client) decodeOrSkip(k, v []byte) *models.DailyWatchRecord {
	rec, err := decodeRecord(c.logger, v)
	if err != nil {
		first, second := splitKey(k)

		c.logger.Warn(
			"skipping corrupt watch record",
			slog.String("key", first+"/"+second),
			slog.Any("error", err),
		)

		return nil
	}

	return rec
}

func (c *Client) GetRecord(
	mediaID, date string,
) (*models.DailyWatchRecord, error) {
	var rec *models.DailyWatchRecord

	err := c.db.View(func(tx *bolt.Tx) error {
		var err error

		rec, err = c.get(tx, recordKey(mediaID, date))

		return err
	})

	return rec, transient(err)
}

// forEachItemRecord calls fn for every decodable record of mediaID in
// ascending date order.
func (c *Client) forEachItemRecord(
	tx *bolt.Tx,
	mediaID string,
	fn func(rec *models.DailyWatchRecord),
) {
	prefix := []byte(mediaID + string(keySep))
	cur := tx.Bucket([]byte(recordBucket)).Cursor()

	for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
		if rec := c.decodeOrSkip(k, v); rec != nil {
			fn(rec)
		}
	}
}

func (c *Client) GetLatest(mediaID string) (*models.DailyWatchRecord, error) {
	var latest *models.DailyWatchRecord

	err := c.db.View(func(tx *bolt.Tx) error {
		c.forEachItemRecord(tx, mediaID, func(rec *models.DailyWatchRecord) {
			latest = rec
		})

		return nil
	})

	return latest, transient(err)
}

func (c *Client) GetHistory(mediaID string) ([]models.HistoryPoint, error) {
	var history []models.HistoryPoint

	err := c.db.View(func(tx *bolt.Tx) error {
		c.forEachItemRecord(tx, mediaID, func(rec *models.DailyWatchRecord) {
			history = append(history, models.HistoryPoint{
				Date:             rec.Date,
				WatchTimeSeconds: rec.WatchTimeSeconds,
			})
		})

		return nil
	})

	return history, transient(err)
}

func (c *Client) TouchTimestamp(mediaID, date string, at time.Time) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		key := recordKey(mediaID, date)

		rec, err := c.get(tx, key)
		if errors.Is(err, ErrCorruptRecord) {
			c.logger.Warn(
				"corrupt watch record not touched",
				slog.String("media_id", mediaID),
				slog.String("date", date),
			)

			return nil
		}

		if err != nil || rec == nil {
			return err
		}

		rec.LastWatchedAt = at

		value, err := encodeRecord(rec)
		if err != nil {
			return err
		}

		return tx.Bucket([]byte(recordBucket)).Put(key, value)
	})

	return transient(err)
}

func (c *Client) DeleteForDate(date string) (int, error) {
	var deleted int

	err := c.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket([]byte(recordBucket))
		prefix := []byte(date + string(keySep))
		cur := tx.Bucket([]byte(dateBucket)).Cursor()

		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); {
			_, mediaID := splitKey(k)

			if err := records.Delete(recordKey(mediaID, date)); err != nil {
				return err
			}

			if err := cur.Delete(); err != nil {
				return err
			}

			deleted++

			// Delete moves the cursor to the next item
			k, _ = cur.Seek(prefix)
		}

		return nil
	})

	return deleted, transient(err)
}

func (c *Client) ListByDate(date string) ([]*models.DailyWatchRecord, error) {
	return c.ListRange(date, date)
}

func (c *Client) ListRange(
	startDay, endDay string,
) ([]*models.DailyWatchRecord, error) {
	var records []*models.DailyWatchRecord

	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(dateBucket)).Cursor()

		for k, _ := cur.Seek([]byte(startDay)); k != nil; k, _ = cur.Next() {
			date, mediaID := splitKey(k)
			if date > endDay {
				break
			}

			key := recordKey(mediaID, date)

			v := tx.Bucket([]byte(recordBucket)).Get(key)
			if v == nil {
				continue
			}

			if rec := c.decodeOrSkip(key, v); rec != nil {
				records = append(records, rec)
			}
		}

		return nil
	})

	return records, transient(err)
}

func (c *Client) DailySeries() (map[string]models.Totals, error) {
	series := make(map[string]models.Totals)

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordBucket)).ForEach(func(k, v []byte) error {
			rec := c.decodeOrSkip(k, v)
			if rec == nil {
				return nil
			}

			t := series[rec.Date]
			t.Add(rec)
			series[rec.Date] = t

			return nil
		})
	})

	return series, transient(err)
}

func (c *Client) Recent(limit int) ([]models.RecentItem, error) {
	latest := make(map[string]models.RecentItem)

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recordBucket)).ForEach(func(k, v []byte) error {
			rec := c.decodeOrSkip(k, v)
			if rec == nil {
				return nil
			}

			if prev, ok := latest[rec.MediaID]; ok &&
				!rec.LastWatchedAt.After(prev.LastWatchedAt) {
				return nil
			}

			latest[rec.MediaID] = models.RecentItem{
				LastWatchedAt:            rec.LastWatchedAt,
				MediaID:                  rec.MediaID,
				Date:                     rec.Date,
				LastWatchPositionSeconds: rec.LastWatchPositionSeconds,
				DurationSeconds:          rec.DurationSeconds,
			}

			return nil
		})
	})
	if err != nil {
		return nil, transient(err)
	}

	return SortRecent(latest, limit), nil
}

// SortRecent orders items by last watched time, most recent first, and
// truncates the result to limit entries. A non-positive limit keeps all.
func SortRecent(items map[string]models.RecentItem, limit int) []models.RecentItem {
	result := make([]models.RecentItem, 0, len(items))
	for _, v := range items {
		result = append(result, v)
	}

	slices.SortFunc(result, func(a, b models.RecentItem) int {
		if c := b.LastWatchedAt.Compare(a.LastWatchedAt); c != 0 {
			return c
		}

		return strings.Compare(a.MediaID, b.MediaID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result
}

func (c *Client) Close() error {
	return c.db.Close()
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	db, err := bolt.Open(
		pathToDB,
		osutil.FilePermission,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errWatchlogRunning
		}

		return nil, transient(err)
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection.
func NewClient(dbPath string, logger *slog.Logger) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		db:     db,
		logger: logger,
	}

	// Create the necessary buckets and bring older layouts up to date
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{recordBucket, dateBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return c.migrate(tx)
	})
	if err != nil {
		_ = db.Close()
		return nil, transient(err)
	}

	return c, nil
}
