// Package snapshot persists the enumerable blob sequence of a store to an
// embedded bbolt database, and exports it as a compressed archive. The core
// engine stays in-memory; snapshots are taken and restored explicitly.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kraukis/substore/internal/models"
)

var bucketBlobs = []byte("blobs")

// DB is a bbolt-backed snapshot store.
type DB struct {
	db *bolt.DB
}

// Open opens or creates a snapshot database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlobs)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create blobs bucket: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the bbolt database.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Save replaces the stored snapshot with the given blob sequence in one
// atomic transaction.
func (d *DB) Save(blobs []*models.Blob) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketBlobs); err != nil {
			return fmt.Errorf("clear blobs bucket: %w", err)
		}
		b, err := tx.CreateBucket(bucketBlobs)
		if err != nil {
			return fmt.Errorf("recreate blobs bucket: %w", err)
		}

		for _, blob := range blobs {
			data, err := json.Marshal(blob)
			if err != nil {
				return fmt.Errorf("marshal blob %s: %w", blob.ID.Short(), err)
			}
			if err := b.Put(blob.ID[:], data); err != nil {
				return fmt.Errorf("store blob %s: %w", blob.ID.Short(), err)
			}
		}
		return nil
	})
}

// Load returns all blobs in the stored snapshot, in id order.
func (d *DB) Load() ([]*models.Blob, error) {
	var blobs []*models.Blob

	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).ForEach(func(_, v []byte) error {
			blob := &models.Blob{}
			if err := json.Unmarshal(v, blob); err != nil {
				return fmt.Errorf("unmarshal blob: %w", err)
			}
			blobs = append(blobs, blob)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return blobs, nil
}

// Count returns the number of blobs in the stored snapshot.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketBlobs).Stats().KeyN
		return nil
	})
	return count, err
}
