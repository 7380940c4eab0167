package boltdb

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// Get returns a copy of the value, or nil when the key is absent
func (s *Storage) Get(key string) ([]byte, error) {
	var data []byte
	err := s.view(bucketKV, func(b *bbolt.Bucket) error {
		if v := b.Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return data, nil
}

// Put stores value under key
func (s *Storage) Put(key string, value []byte) error {
	err := s.update(bucketKV, func(b *bbolt.Bucket) error {
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}
