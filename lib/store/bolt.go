package store

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketViews = "views"
	bucketOrder = "order"
)

// BoltStore persists view state in a bbolt database so it survives restarts.
// Entries beyond limit are evicted oldest first.
type BoltStore struct {
	db    *bolt.DB
	limit int
}

// OpenBolt opens or creates the database at path. A limit below 1 means
// unbounded.
func OpenBolt(path string, limit int) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketViews, bucketOrder} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init %s: %w", path, err)
	}
	return &BoltStore{db: db, limit: limit}, nil
}

// Each value is stored as an 8-byte sequence number followed by the data; the
// order bucket maps sequence numbers back to keys.
func (s *BoltStore) Put(key string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		views := tx.Bucket([]byte(bucketViews))
		order := tx.Bucket([]byte(bucketOrder))

		if old := views.Get([]byte(key)); len(old) >= 8 {
			if err := order.Delete(old[:8]); err != nil {
				return err
			}
		}
		seq, err := order.NextSequence()
		if err != nil {
			return err
		}
		seqKey := marshalSeq(seq)
		if err := order.Put(seqKey, []byte(key)); err != nil {
			return err
		}
		value := make([]byte, 0, 8+len(data))
		value = append(value, seqKey...)
		value = append(value, data...)
		if err := views.Put([]byte(key), value); err != nil {
			return err
		}
		return s.evict(views, order)
	})
}

func (s *BoltStore) evict(views, order *bolt.Bucket) error {
	if s.limit < 1 {
		return nil
	}
	c := order.Cursor()
	n := 0
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	for k, v := c.First(); k != nil && n > s.limit; k, v = c.First() {
		if err := views.Delete(v); err != nil {
			return err
		}
		if err := c.Delete(); err != nil {
			return err
		}
		n--
	}
	return nil
}

func (s *BoltStore) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketViews)).Get([]byte(key))
		if len(v) < 8 {
			return ErrNotFound
		}
		data = append([]byte(nil), v[8:]...)
		return nil
	})
	return data, err
}

func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		views := tx.Bucket([]byte(bucketViews))
		if old := views.Get([]byte(key)); len(old) >= 8 {
			if err := tx.Bucket([]byte(bucketOrder)).Delete(old[:8]); err != nil {
				return err
			}
		}
		return views.Delete([]byte(key))
	})
}

func (s *BoltStore) Close() error { return s.db.Close() }

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
