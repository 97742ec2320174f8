package bill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const billsBucket = "bills"

// BoltStore implements Store on a local BoltDB file
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(billsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// List returns all bills in key order
func (s *BoltStore) List(ctx context.Context) ([]*Bill, error) {
	bills := make([]*Bill, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var b Bill
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("unmarshaling bill %s: %w", k, err)
			}
			bills = append(bills, &b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// Get retrieves a bill by ID
func (s *BoltStore) Get(ctx context.Context, id string) (*Bill, error) {
	var b *Bill
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(billsBucket)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create stores a new bill. The bill must carry its ID.
func (s *BoltStore) Create(ctx context.Context, b *Bill) (*Bill, error) {
	if b.ID == "" {
		return nil, errors.New("bill id is required")
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucket))
		if bucket.Get([]byte(b.ID)) != nil {
			return fmt.Errorf("bill %s already exists", b.ID)
		}
		return putBill(bucket, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces an existing bill
func (s *BoltStore) Update(ctx context.Context, id string, b *Bill) (*Bill, error) {
	b.ID = id
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(billsBucket))
		if bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return putBill(bucket, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Close closes the database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func putBill(bucket *bbolt.Bucket, b *Bill) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling bill: %w", err)
	}
	return bucket.Put([]byte(b.ID), data)
}
