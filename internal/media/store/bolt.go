// Package store is a small object store on top of a bbolt file. Each storage
// bucket maps to a top-level bolt bucket holding object bytes and their
// content types in two nested buckets.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

var (
	dataBucket = []byte("data")
	typeBucket = []byte("content_type")
)

// Object is a stored blob.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Data        []byte
}

// BoltStore stores objects in a single bbolt database file.
type BoltStore struct {
	db     *bolt.DB
	logger *logger.Logger
}

// Open opens or creates the database at path and makes sure buckets exist.
func Open(path string, buckets []string, log *logger.Logger) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open object store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			b, err := tx.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return err
			}
			if _, err := b.CreateBucketIfNotExists(dataBucket); err != nil {
				return err
			}
			if _, err := b.CreateBucketIfNotExists(typeBucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize object store: %w", err)
	}

	log.Info().Str("path", path).Strs("buckets", buckets).Msg("object store opened")
	return &BoltStore{db: db, logger: log}, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func nested(tx *bolt.Tx, bucket string) (data, types *bolt.Bucket, err error) {
	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return nil, nil, errors.NotFound("bucket")
	}
	return b.Bucket(dataBucket), b.Bucket(typeBucket), nil
}

// Put stores data under key, replacing any previous object.
func (s *BoltStore) Put(ctx context.Context, bucket, key, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		d, t, err := nested(tx, bucket)
		if err != nil {
			return err
		}
		if err := d.Put([]byte(key), data); err != nil {
			return err
		}
		return t.Put([]byte(key), []byte(contentType))
	})
}

// Get returns the object stored under key.
func (s *BoltStore) Get(ctx context.Context, bucket, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj := &Object{Bucket: bucket, Key: key}
	err := s.db.View(func(tx *bolt.Tx) error {
		d, t, err := nested(tx, bucket)
		if err != nil {
			return err
		}
		v := d.Get([]byte(key))
		if v == nil {
			return errors.NotFound("object")
		}
		// Values are only valid inside the transaction.
		obj.Data = append([]byte(nil), v...)
		obj.ContentType = string(t.Get([]byte(key)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Delete removes key. Deleting a missing object is not an error.
func (s *BoltStore) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		d, t, err := nested(tx, bucket)
		if err != nil {
			return err
		}
		if err := d.Delete([]byte(key)); err != nil {
			return err
		}
		return t.Delete([]byte(key))
	})
}
