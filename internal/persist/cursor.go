package persist

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Cursor is an opaque, named resume position (a journald cursor string, a
// byte offset, an upload watermark) persisted across restarts.
type Cursor struct {
	store *Store
	name  []byte
}

// Cursor returns a handle for the named cursor. The name is a bucket key,
// not a separate bucket, so many cursors can share one Store cheaply.
func (s *Store) Cursor(name string) *Cursor {
	return &Cursor{store: s, name: []byte(name)}
}

// Get returns the cursor's current value and whether it has ever been set.
func (c *Cursor) Get() (string, bool, error) {
	var value string
	var found bool
	err := c.store.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCursors).Get(c.name)
		if data == nil {
			return nil
		}
		found = true
		value = string(data)
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("persist: reading cursor %s: %w", c.name, err)
	}
	return value, found, nil
}

// Set persists value as the cursor's new position.
func (c *Cursor) Set(value string) error {
	err := c.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCursors).Put(c.name, []byte(value))
	})
	if err != nil {
		return fmt.Errorf("persist: writing cursor %s: %w", c.name, err)
	}
	return nil
}

// Delete removes the cursor, as if it had never been set.
func (c *Cursor) Delete() error {
	err := c.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCursors).Delete(c.name)
	})
	if err != nil {
		return fmt.Errorf("persist: deleting cursor %s: %w", c.name, err)
	}
	return nil
}
