package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/internal/server/storage"
)

// AppendChanges вставляет пакет в одной транзакции
func (s *Storage) AppendChanges(ctx context.Context, records []*models.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var last int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(server_epoch), 0) FROM change_records`).Scan(&last); err != nil {
		return fmt.Errorf("failed to read latest epoch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO change_records (
			server_epoch, id, scope_type, scope_id, actor_id, device_id,
			op_type, payload, lamport, created_at, client_created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ServerEpoch <= last {
			return fmt.Errorf("%w: epoch %d after %d", storage.ErrEpochOrder, rec.ServerEpoch, last)
		}
		last = rec.ServerEpoch

		var clientCreated sql.NullInt64
		if rec.ClientCreatedAt != nil {
			clientCreated = sql.NullInt64{Int64: rec.ClientCreatedAt.UnixMilli(), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			rec.ServerEpoch,
			rec.ID,
			string(rec.ScopeType),
			rec.ScopeID,
			rec.ActorID,
			rec.DeviceID,
			string(rec.OpType),
			rec.Payload,
			int64(rec.Lamport),
			rec.CreatedAt.UnixMilli(),
			clientCreated,
		)
		if err != nil {
			return fmt.Errorf("failed to insert change %d: %w", rec.ServerEpoch, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit changes: %w", err)
	}
	return nil
}

// LoadChanges возвращает записи scope после sinceEpoch в порядке эпох
func (s *Storage) LoadChanges(ctx context.Context, scope models.Scope, sinceEpoch int64) ([]*models.ChangeRecord, error) {
	query := `
		SELECT server_epoch, id, scope_type, scope_id, actor_id, device_id,
		       op_type, payload, lamport, created_at, client_created_at
		FROM change_records
		WHERE scope_type = ? AND scope_id = ? AND server_epoch > ?
		ORDER BY server_epoch ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(scope.Type), scope.ID, sinceEpoch)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ChangeRecord, 0)
	for rows.Next() {
		var (
			rec           models.ChangeRecord
			scopeType     string
			opType        string
			lamport       int64
			createdAt     int64
			clientCreated sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ServerEpoch,
			&rec.ID,
			&scopeType,
			&rec.ScopeID,
			&rec.ActorID,
			&rec.DeviceID,
			&opType,
			&rec.Payload,
			&lamport,
			&createdAt,
			&clientCreated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		rec.ScopeType = models.ScopeType(scopeType)
		rec.OpType = models.OpType(opType)
		rec.Lamport = uint64(lamport)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		if clientCreated.Valid {
			t := time.UnixMilli(clientCreated.Int64).UTC()
			rec.ClientCreatedAt = &t
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// LatestEpoch возвращает максимальную сохраненную эпоху
func (s *Storage) LatestEpoch(ctx context.Context) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(server_epoch), 0) FROM change_records`).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest epoch: %w", err)
	}
	return epoch, nil
}

// SaveSnapshot сохраняет версию снимка; повторное сохранение той же версии
// заменяет ее.
func (s *Storage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (scope_type, scope_id, version, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (scope_type, scope_id, version) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at
	`,
		string(snapshot.ScopeType),
		snapshot.ScopeID,
		snapshot.Version,
		snapshot.PayloadCompressed,
		snapshot.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot возвращает новейший снимок scope
func (s *Storage) LatestSnapshot(ctx context.Context, scope models.Scope) (*models.Snapshot, error) {
	var (
		snap      models.Snapshot
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, payload, created_at
		FROM snapshots
		WHERE scope_type = ? AND scope_id = ?
		ORDER BY version DESC
		LIMIT 1
	`, string(scope.Type), scope.ID).Scan(&snap.Version, &snap.PayloadCompressed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	snap.ScopeType = scope.Type
	snap.ScopeID = scope.ID
	snap.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &snap, nil
}
