package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

// SaveCursor stores the last pulled epoch of a scope
func (s *Storage) SaveCursor(ctx context.Context, scopeKey string, epoch int64) error {
	return s.update(bucketCursors, func(b *bbolt.Bucket) error {
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, uint64(epoch))
		if err := b.Put([]byte(scopeKey), v); err != nil {
			return fmt.Errorf("failed to save cursor: %w", err)
		}
		return nil
	})
}

// GetCursor returns the last pulled epoch of a scope, 0 if never pulled
func (s *Storage) GetCursor(ctx context.Context, scopeKey string) (int64, error) {
	var epoch int64
	err := s.view(bucketCursors, func(b *bbolt.Bucket) error {
		v := b.Get([]byte(scopeKey))
		if len(v) == 8 {
			epoch = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get cursor: %w", err)
	}
	return epoch, nil
}
