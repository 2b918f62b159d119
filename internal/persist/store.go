// Package persist provides small bbolt-backed primitives for state that
// must survive a daemon restart: resumable read cursors and short FIFO
// queues (reboot-reason history, retry backlogs).
package persist

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketCursors = []byte("cursors")
	bucketQueues  = []byte("queues")
)

// Store is a single bbolt database shared by every cursor and queue this
// daemon keeps.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path and
// prepares the buckets cursors and queues live in.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("persist: opening %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCursors, bucketQueues} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("persist: creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
