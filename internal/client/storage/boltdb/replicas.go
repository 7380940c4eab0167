package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/docsync/internal/client/storage"
)

// SaveReplica stores a saved replica image under its scope key
func (s *Storage) SaveReplica(ctx context.Context, scopeKey string, data []byte) error {
	return s.update(bucketReplicas, func(b *bbolt.Bucket) error {
		if err := b.Put([]byte(scopeKey), data); err != nil {
			return fmt.Errorf("failed to save replica: %w", err)
		}
		return nil
	})
}

// LoadReplica returns a copy of the stored image or storage.ErrNotFound
func (s *Storage) LoadReplica(ctx context.Context, scopeKey string) ([]byte, error) {
	var data []byte
	err := s.view(bucketReplicas, func(b *bbolt.Bucket) error {
		v := b.Get([]byte(scopeKey))
		if v == nil {
			return storage.ErrNotFound
		}
		// значения bbolt валидны только внутри транзакции
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ListReplicas returns the scope keys of all stored replicas in key order
func (s *Storage) ListReplicas(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.view(bucketReplicas, func(b *bbolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list replicas: %w", err)
	}
	return keys, nil
}
