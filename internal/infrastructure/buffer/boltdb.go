package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "task_events"

// Outbox persists task events in BoltDB until they have been published.
// Keys sort by priority, then enqueue time, so a cursor walk yields drain order.
type Outbox struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Outbox, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create outbox directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Outbox{db: db, bucket: []byte(bucket)}, nil
}

// Append stores an entry and returns it with its id and priority filled in.
func (o *Outbox) Append(entry Entry) (Entry, error) {
	if o == nil || o.db == nil {
		return entry, bolt.ErrDatabaseNotOpen
	}
	entry.normalize()
	entry.key = entryKey(entry)

	payload, err := json.Marshal(entry)
	if err != nil {
		return entry, err
	}
	err = o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(o.bucket).Put(entry.key, payload)
	})
	return entry, err
}

// Peek returns up to limit entries in drain order without removing them.
func (o *Outbox) Peek(limit int) ([]Entry, error) {
	if o == nil || o.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := o.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(o.bucket).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entry.key = append([]byte(nil), k...)
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Ack removes a published entry.
func (o *Outbox) Ack(entry Entry) error {
	if o == nil || o.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(entry.key) == 0 {
		return o.deleteByID(entry.ID)
	}
	return o.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(o.bucket).Delete(entry.key)
	})
}

// Retry bumps the attempt counter and moves the entry behind its peers in a
// single transaction.
func (o *Outbox) Retry(entry Entry) error {
	if o == nil || o.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	oldKey := entry.key
	entry.Attempts++
	entry.QueuedAt = time.Now().UTC()
	entry.key = entryKey(entry)

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return o.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(o.bucket)
		if len(oldKey) > 0 {
			if err := b.Delete(oldKey); err != nil {
				return err
			}
		}
		return b.Put(entry.key, payload)
	})
}

func (o *Outbox) Size() (int, error) {
	if o == nil || o.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := o.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(o.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Prune drops entries queued before olderThan and returns how many were removed.
func (o *Outbox) Prune(olderThan time.Time) (int, error) {
	if o == nil || o.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := o.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(o.bucket)
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.QueuedAt.Before(olderThan) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (o *Outbox) Close() error {
	if o == nil || o.db == nil {
		return nil
	}
	return o.db.Close()
}

func (o *Outbox) deleteByID(id string) error {
	if id == "" {
		return nil
	}
	return o.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(o.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

func entryKey(entry Entry) []byte {
	return []byte(fmt.Sprintf("%d_%020d_%s", entry.Priority, entry.QueuedAt.UnixNano(), entry.ID))
}
