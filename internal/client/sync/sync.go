package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	httpClient "github.com/iudanet/docsync/internal/client/api"
	"github.com/iudanet/docsync/internal/client/ledger"
	"github.com/iudanet/docsync/internal/codec"
	"github.com/iudanet/docsync/internal/crdt"
	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/pkg/api"
)

// Sync выполняет полную синхронизацию одного scope:
// 1. Отправляет outbox на сервер пакетами
// 2. Получает изменения сервера после курсора scope (холодный старт через снимок)
// 3. Сливает их в локальную реплику и сдвигает курсор
// Истекшая сессия продлевается одним handshake, и синхронизация повторяется.
func (s *service) Sync(ctx context.Context, scope models.Scope) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx, scope)
}

func (s *service) syncLocked(ctx context.Context, scope models.Scope) (*SyncResult, error) {
	if !scope.Type.Valid() || scope.ID == "" {
		return nil, fmt.Errorf("invalid scope %q", scope.Key())
	}

	info, err := s.identityLocked(ctx)
	if err != nil {
		return nil, err
	}
	if info.SessionToken == "" {
		if _, err := s.connectLocked(ctx); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Starting synchronization", "scope", scope.Key())
	result, err := s.syncOnce(ctx, scope)
	if errors.Is(err, httpClient.ErrSessionExpired) {
		s.logger.Info("Session expired, reconnecting", "scope", scope.Key())
		if _, err := s.connectLocked(ctx); err != nil {
			return nil, err
		}
		result, err = s.syncOnce(ctx, scope)
	}
	if err != nil {
		s.setStatus(statusFor(err))
		return nil, err
	}
	s.setStatus(StatusOnline)

	if err := s.store.SaveLastSyncTimestamp(ctx, s.now().UnixMilli()); err != nil {
		// Не прерываем синхронизацию из-за ошибки сохранения timestamp
		s.logger.Warn("Failed to save last sync timestamp", "error", err)
	}

	s.logger.Info("Synchronization completed",
		"scope", scope.Key(),
		"pushed", result.Pushed,
		"pulled", result.Pulled,
		"applied", result.Applied,
		"conflicts", len(result.Conflicts),
		"cursor", result.Cursor)
	return result, nil
}

func (s *service) syncOnce(ctx context.Context, scope models.Scope) (*SyncResult, error) {
	result := &SyncResult{}
	if err := s.pushLocked(ctx, result); err != nil {
		return nil, err
	}
	if err := s.pullLocked(ctx, scope, result); err != nil {
		return nil, err
	}
	return result, nil
}

// pushLocked отправляет outbox пакетами; запись удаляется только после ack
func (s *service) pushLocked(ctx context.Context, result *SyncResult) error {
	for {
		queued, err := s.store.ListQueued(ctx, s.cfg.PushBatch)
		if err != nil {
			return fmt.Errorf("failed to read outbox: %w", err)
		}
		if len(queued) == 0 {
			return nil
		}

		records := make([]*models.ChangeRecord, len(queued))
		seqs := make([]uint64, len(queued))
		for i, q := range queued {
			records[i] = q.Record
			seqs[i] = q.Seq
		}

		resp, err := s.api.Push(ctx, s.device.SessionToken, api.PushRequest{
			WorkspaceID: s.device.WorkspaceID,
			Changes:     records,
		})
		if err != nil {
			return fmt.Errorf("failed to push changes: %w", err)
		}
		if err := s.store.RemoveQueued(ctx, seqs); err != nil {
			return fmt.Errorf("failed to clear outbox: %w", err)
		}

		if result.Pushed == 0 {
			result.Ack.MinEpoch = resp.Ack.MinEpoch
		}
		result.Ack.MaxEpoch = resp.Ack.MaxEpoch
		result.Pushed += len(records)
		s.logger.Debug("Pushed changes", "count", len(records), "min_epoch", resp.Ack.MinEpoch, "max_epoch", resp.Ack.MaxEpoch)
	}
}

func (s *service) pullLocked(ctx context.Context, scope models.Scope, result *SyncResult) error {
	key := scope.Key()
	cursor, err := s.store.GetCursor(ctx, key)
	if err != nil {
		return err
	}

	resp, err := s.api.Pull(ctx, s.device.SessionToken, api.PullRequest{
		WorkspaceID: s.device.WorkspaceID,
		ScopeType:   scope.Type,
		ScopeID:     scope.ID,
		SinceEpoch:  cursor,
	})
	if err != nil {
		return fmt.Errorf("failed to pull changes: %w", err)
	}

	r, err := s.replicaLocked(ctx, scope)
	if err != nil {
		return err
	}

	var changes []*crdt.Change
	if resp.Snapshot != nil {
		snapChanges, err := s.snapshotChanges(key, resp.Snapshot)
		if err != nil {
			// снимок только ускоряет холодный старт, полный список изменений все равно пришел
			s.logger.Warn("Ignoring unreadable snapshot", "scope", key, "version", resp.Snapshot.Version, "error", err)
		} else {
			changes = append(changes, snapChanges...)
		}
	}

	next := cursor
	for _, rec := range resp.Changes {
		if rec.ServerEpoch > next {
			next = rec.ServerEpoch
		}
		if rec.OpType != models.OpCRDT {
			s.logger.Debug("Skipping non-document change", "id", rec.ID, "op", rec.OpType)
			result.Skipped++
			continue
		}
		c, err := crdt.DecodeChange(rec.Payload)
		if err != nil {
			s.logger.Warn("Skipping malformed change", "id", rec.ID, "epoch", rec.ServerEpoch, "error", err)
			result.Skipped++
			continue
		}
		changes = append(changes, c)
	}
	result.Pulled = len(resp.Changes)

	applied, err := r.ApplyChanges(changes)
	if err != nil {
		// битые изменения отброшены движком, остальные применены
		s.logger.Warn("Some changes were rejected during merge", "scope", key, "error", err)
	}
	result.Applied = applied.Applied
	result.Duplicates = applied.Duplicates
	result.Pending = applied.Pending
	s.surfaceConflicts(scope, applied.Conflicts, result)

	if err := s.saveReplicaLocked(ctx, r); err != nil {
		return err
	}
	if err := s.store.SaveCursor(ctx, key, next); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	result.Cursor = next
	return nil
}

func (s *service) snapshotChanges(key string, snap *models.Snapshot) ([]*crdt.Change, error) {
	data, err := codec.Decompress(snap.PayloadCompressed)
	if err != nil {
		return nil, err
	}
	img, err := crdt.Load(key, data)
	if err != nil {
		return nil, err
	}
	return img.Changes(), nil
}

// surfaceConflicts отбрасывает конфликты, по которым уже есть решение в журнале
func (s *service) surfaceConflicts(scope models.Scope, conflicts []crdt.Conflict, result *SyncResult) {
	for _, c := range conflicts {
		key := ledgerKey(scope, c.Path, s.device.DeviceID)
		if _, ok := s.ledger.Lookup(key); ok {
			result.Suppressed++
			continue
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Scope:  scope,
			Key:    key,
			Path:   c.Path,
			Values: c.Values,
		})
	}
}

// Compact синхронизирует scope и загружает сжатый образ реплики как снимок
// на эпохе курсора
func (s *service) Compact(ctx context.Context, scope models.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.syncLocked(ctx, scope)
	if err != nil {
		return 0, err
	}

	r, err := s.replicaLocked(ctx, scope)
	if err != nil {
		return 0, err
	}
	data, err := r.Save()
	if err != nil {
		return 0, fmt.Errorf("failed to encode replica: %w", err)
	}
	compressed, err := codec.Compress(data)
	if err != nil {
		return 0, err
	}

	resp, err := s.api.SaveSnapshot(ctx, s.device.SessionToken, api.SnapshotRequest{
		WorkspaceID: s.device.WorkspaceID,
		Snapshot: &models.Snapshot{
			ScopeType:         scope.Type,
			ScopeID:           scope.ID,
			Version:           result.Cursor,
			PayloadCompressed: compressed,
		},
	})
	if err != nil {
		s.setStatus(statusFor(err))
		return 0, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	s.logger.Info("Snapshot uploaded",
		"scope", scope.Key(),
		"version", resp.Version,
		"raw_bytes", len(data),
		"compressed_bytes", len(compressed))
	return resp.Version, nil
}

func ledgerKey(scope models.Scope, path []string, deviceID string) string {
	return ledger.Key(scope, strings.Join(path, "."), deviceID)
}
