package storage

import (
	"context"

	"github.com/iudanet/docsync/internal/models"
)

//go:generate moq -out changelog_mock.go . ChangeLog

// ChangeLog журнал записей изменений и снимков только на дозапись,
// разбитый по scope.
type ChangeLog interface {
	// LoadChanges возвращает записи scope с ServerEpoch > sinceEpoch в порядке
	// эпох. Если ничего нет, возвращает пустой срез.
	LoadChanges(ctx context.Context, scope models.Scope, sinceEpoch int64) ([]*models.ChangeRecord, error)

	// AppendChanges сохраняет пакет атомарно: последующим чтениям видны либо
	// все записи, либо ни одной. Эпохи у записей уже назначены.
	AppendChanges(ctx context.Context, records []*models.ChangeRecord) error

	// LatestEpoch возвращает максимальную сохраненную эпоху, 0 для пустого журнала
	LatestEpoch(ctx context.Context) (int64, error)

	// SaveSnapshot сохраняет снимок; для чтения более новая версия
	// заменяет старые.
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error

	// LatestSnapshot возвращает снимок scope с наибольшей версией или
	// ErrSnapshotNotFound.
	LatestSnapshot(ctx context.Context, scope models.Scope) (*models.Snapshot, error)
}
