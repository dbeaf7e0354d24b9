package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/hutchdb/hutch/pkg/types"
)

var (
	// Bucket names
	bucketDeployments = []byte("deployments")
)

// BoltStore persists deployment outcome records using BoltDB. Only the
// credential-free DeploymentRecord is ever written; deploy requests
// themselves are never persisted.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "hutch.db")

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDeployments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveDeployment writes a deployment record (upsert by ID).
func (s *BoltStore) SaveDeployment(record *types.DeploymentRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put([]byte(record.ID), data)
	})
}

// GetDeployment returns one deployment record by ID.
func (s *BoltStore) GetDeployment(id string) (*types.DeploymentRecord, error) {
	var record types.DeploymentRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("deployment not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListDeployments returns all deployment records, newest first.
func (s *BoltStore) ListDeployments() ([]*types.DeploymentRecord, error) {
	var records []*types.DeploymentRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		return b.ForEach(func(k, v []byte) error {
			var record types.DeploymentRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteDeployment removes a deployment record.
func (s *BoltStore) DeleteDeployment(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeployments).Delete([]byte(id))
	})
}
