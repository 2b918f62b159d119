package persist

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Queue is a small, named, durable FIFO of byte blobs: reboot-reason
// history, a retry backlog of failed uploads. Entries are ordered by
// bbolt's monotonic per-bucket sequence, so insertion order survives a
// restart.
type Queue struct {
	store  *Store
	bucket []byte
}

// Queue returns a handle for the named queue, creating its backing bucket
// if this is the first use.
func (s *Store) Queue(name string) (*Queue, error) {
	bucket := []byte("queue:" + name)
	err := s.db.Update(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bucketQueues)
		_, err := parent.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("persist: creating queue %s: %w", name, err)
	}
	return &Queue{store: s, bucket: bucket}, nil
}

func (q *Queue) bucketFor(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket(bucketQueues).Bucket(q.bucket)
}

// Push appends value to the tail of the queue.
func (q *Queue) Push(value []byte) error {
	err := q.store.db.Update(func(tx *bolt.Tx) error {
		b := q.bucketFor(tx)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), value)
	})
	if err != nil {
		return fmt.Errorf("persist: pushing to queue %s: %w", q.bucket, err)
	}
	return nil
}

// Peek returns the oldest entry without removing it. ok is false if the
// queue is empty.
func (q *Queue) Peek() (value []byte, ok bool, err error) {
	txErr := q.store.db.View(func(tx *bolt.Tx) error {
		k, v := q.bucketFor(tx).Cursor().First()
		if k == nil {
			return nil
		}
		ok = true
		value = append([]byte(nil), v...)
		return nil
	})
	if txErr != nil {
		return nil, false, fmt.Errorf("persist: peeking queue %s: %w", q.bucket, txErr)
	}
	return value, ok, nil
}

// Pop removes and returns the oldest entry. ok is false if the queue was
// empty.
func (q *Queue) Pop() (value []byte, ok bool, err error) {
	txErr := q.store.db.Update(func(tx *bolt.Tx) error {
		b := q.bucketFor(tx)
		k, v := b.Cursor().First()
		if k == nil {
			return nil
		}
		ok = true
		value = append([]byte(nil), v...)
		return b.Delete(k)
	})
	if txErr != nil {
		return nil, false, fmt.Errorf("persist: popping queue %s: %w", q.bucket, txErr)
	}
	return value, ok, nil
}

// Len reports how many entries the queue currently holds.
func (q *Queue) Len() (int, error) {
	var n int
	err := q.store.db.View(func(tx *bolt.Tx) error {
		n = q.bucketFor(tx).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("persist: counting queue %s: %w", q.bucket, err)
	}
	return n, nil
}

// Trim discards entries from the head of the queue until at most maxLen
// remain. Used to cap unbounded growth of state like reboot-reason history.
func (q *Queue) Trim(maxLen int) error {
	err := q.store.db.Update(func(tx *bolt.Tx) error {
		b := q.bucketFor(tx)
		n := b.Stats().KeyN
		c := b.Cursor()
		for k, _ := c.First(); k != nil && n > maxLen; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			n--
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist: trimming queue %s: %w", q.bucket, err)
	}
	return nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
