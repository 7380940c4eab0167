package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/docsync/internal/client/storage"
)

const (
	keyLastSyncTimestamp = "last_sync_timestamp"
	keyDevice            = "device"
)

// SaveDevice stores the device identity and current session
func (s *Storage) SaveDevice(ctx context.Context, info *storage.DeviceInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal device info: %w", err)
	}
	return s.update(bucketMetadata, func(b *bbolt.Bucket) error {
		if err := b.Put([]byte(keyDevice), data); err != nil {
			return fmt.Errorf("failed to save device info: %w", err)
		}
		return nil
	})
}

// GetDevice returns the stored device identity or storage.ErrNotFound
func (s *Storage) GetDevice(ctx context.Context) (*storage.DeviceInfo, error) {
	var info *storage.DeviceInfo
	err := s.view(bucketMetadata, func(b *bbolt.Bucket) error {
		data := b.Get([]byte(keyDevice))
		if data == nil {
			return storage.ErrNotFound
		}

		info = &storage.DeviceInfo{}
		if err := json.Unmarshal(data, info); err != nil {
			return fmt.Errorf("failed to unmarshal device info: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// SaveLastSyncTimestamp saves the timestamp of the last successful sync
func (s *Storage) SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error {
	return s.update(bucketMetadata, func(b *bbolt.Bucket) error {
		// Конвертируем int64 в bytes
		timestampBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))

		if err := b.Put([]byte(keyLastSyncTimestamp), timestampBytes); err != nil {
			return fmt.Errorf("failed to save last sync timestamp: %w", err)
		}
		return nil
	})
}

// GetLastSyncTimestamp retrieves the timestamp of the last successful sync
// Returns 0 if no sync has been performed yet
func (s *Storage) GetLastSyncTimestamp(ctx context.Context) (int64, error) {
	var timestamp int64

	err := s.view(bucketMetadata, func(b *bbolt.Bucket) error {
		timestampBytes := b.Get([]byte(keyLastSyncTimestamp))
		if timestampBytes == nil {
			// Первая синхронизация
			return nil
		}

		timestamp = int64(binary.BigEndian.Uint64(timestampBytes))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get last sync timestamp: %w", err)
	}

	return timestamp, nil
}
