package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/docsync/internal/client/storage"
	"github.com/iudanet/docsync/internal/models"
)

// ключи outbox big-endian, поэтому курсор bbolt обходит их в порядке постановки
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// Enqueue appends a change record to the outbox and returns its sequence
func (s *Storage) Enqueue(ctx context.Context, record *models.ChangeRecord) (uint64, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal change record: %w", err)
	}

	var seq uint64
	err = s.update(bucketOutbox, func(b *bbolt.Bucket) error {
		seq, err = b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}
		return b.Put(seqKey(seq), data)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue change: %w", err)
	}
	return seq, nil
}

// ListQueued returns up to limit queued records, oldest first
func (s *Storage) ListQueued(ctx context.Context, limit int) ([]storage.QueuedChange, error) {
	var out []storage.QueuedChange
	err := s.view(bucketOutbox, func(b *bbolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec models.ChangeRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal queued change: %w", err)
			}
			out = append(out, storage.QueuedChange{Seq: binary.BigEndian.Uint64(k), Record: &rec})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveQueued deletes acknowledged records. Unknown sequences are ignored.
func (s *Storage) RemoveQueued(ctx context.Context, seqs []uint64) error {
	if len(seqs) == 0 {
		return nil
	}
	return s.update(bucketOutbox, func(b *bbolt.Bucket) error {
		for _, seq := range seqs {
			if err := b.Delete(seqKey(seq)); err != nil {
				return fmt.Errorf("failed to remove queued change %d: %w", seq, err)
			}
		}
		return nil
	})
}

// QueueLen returns the number of records waiting to be pushed
func (s *Storage) QueueLen(ctx context.Context) (int, error) {
	var n int
	err := s.view(bucketOutbox, func(b *bbolt.Bucket) error {
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
