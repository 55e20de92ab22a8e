package store

import (
	"strconv"

	"go.etcd.io/bbolt"
)

const (
	schemaVersionKey = "schema_version"

	// schemaVersion 1 stored records without the dates index
	schemaVersion = 2
)

func readSchemaVersion(tx *bbolt.Tx) int {
	v := tx.Bucket([]byte(metaBucket)).Get([]byte(schemaVersionKey))
	if v == nil {
		return 1
	}

	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 1
	}

	return n
}

// migrateDateIndex adds a dates index entry for every stored record that
// lacks one.
func migrateDateIndex(tx *bbolt.Tx) error {
	index := tx.Bucket([]byte(dateBucket))
	cur := tx.Bucket([]byte(recordBucket)).Cursor()

	for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
		mediaID, date := splitKey(k)

		key := dateKey(date, mediaID)
		if index.Get(key) != nil {
			continue
		}

		if err := index.Put(key, []byte{}); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) migrate(tx *bbolt.Tx) error {
	version := readSchemaVersion(tx)
	if version >= schemaVersion {
		return nil
	}

	if err := migrateDateIndex(tx); err != nil {
		return err
	}

	c.logger.Info(
		"migrated watch store",
		"from", version,
		"to", schemaVersion,
	)

	return tx.Bucket([]byte(metaBucket)).Put(
		[]byte(schemaVersionKey),
		[]byte(strconv.Itoa(schemaVersion)),
	)
}
