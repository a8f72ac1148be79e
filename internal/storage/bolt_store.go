package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	bolt "go.etcd.io/bbolt"
)

const exchangeBucket = "exchanges"

// record is the stored form of an Exchange.
type record struct {
	ExpiresAt int64    `json:"expires_at"`
	Exchange  Exchange `json:"exchange"`
}

// boltJournal implements a Journal backed by BoltDB. Keys are ULIDs, so a
// cursor walks entries in the order they were recorded.
type boltJournal struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	entryTTL        time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Journal.
func openBolt(path string, opts Options) (Journal, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(exchangeBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	j := &boltJournal{
		db:              db,
		entryTTL:        opts.EntryTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	j.lastCleanup.Store(time.Now().Unix())
	return j, nil
}

// Close closes the BoltDB journal.
func (b *boltJournal) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Record stores e, assigning an ID and timestamp when they are missing.
func (b *boltJournal) Record(e Exchange) (Exchange, error) {
	if b == nil || b.db == nil {
		return e, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return e, err
	}

	if e.At.IsZero() {
		e.At = now.UTC()
	}
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}

	value, err := json.Marshal(record{
		ExpiresAt: now.Add(b.entryTTL).Unix(),
		Exchange:  e,
	})
	if err != nil {
		return e, fmt.Errorf("encode exchange: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(exchangeBucket))
		if bucket == nil {
			return fmt.Errorf("exchange bucket missing")
		}
		return bucket.Put([]byte(e.ID), value)
	})
	return e, err
}

// Recent returns up to limit live exchanges, newest first. A non-positive
// limit returns all of them.
func (b *boltJournal) Recent(limit int) ([]Exchange, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := time.Now()
	var out []Exchange
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(exchangeBucket))
		if bucket == nil {
			return fmt.Errorf("exchange bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			rec, ok := decodeRecord(v)
			if !ok || rec.ExpiresAt <= now.Unix() {
				continue
			}
			out = append(out, rec.Exchange)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired entries on a fixed cadence to avoid unbounded growth.
func (b *boltJournal) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(exchangeBucket))
		if bucket == nil {
			return fmt.Errorf("exchange bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			rec, ok := decodeRecord(v)
			if !ok || rec.ExpiresAt <= now.Unix() {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeRecord decodes a stored entry, reporting false for corrupt values.
func decodeRecord(value []byte) (record, bool) {
	var rec record
	if err := json.Unmarshal(value, &rec); err != nil {
		return record{}, false
	}
	if rec.ExpiresAt <= 0 {
		return record{}, false
	}
	return rec, true
}
