package storage

import (
	"context"

	"github.com/iudanet/docsync/internal/models"
)

// ReplicaStorage хранит сохраненные реплики документов по ключу scope
type ReplicaStorage interface {
	// SaveReplica сохраняет результат crdt.Replica.Save
	SaveReplica(ctx context.Context, scopeKey string, data []byte) error

	// LoadReplica возвращает ErrNotFound, если реплики нет
	LoadReplica(ctx context.Context, scopeKey string) ([]byte, error)

	// ListReplicas возвращает ключи всех сохраненных реплик
	ListReplicas(ctx context.Context) ([]string, error)
}

// QueuedChange запись outbox с порядковым номером очереди
type QueuedChange struct {
	Record *models.ChangeRecord
	Seq    uint64
}

// OutboxStorage durable очередь изменений, еще не принятых сервером (FIFO)
type OutboxStorage interface {
	Enqueue(ctx context.Context, record *models.ChangeRecord) (uint64, error)

	// ListQueued возвращает до limit записей в порядке постановки; limit <= 0 без ограничения
	ListQueued(ctx context.Context, limit int) ([]QueuedChange, error)

	RemoveQueued(ctx context.Context, seqs []uint64) error

	QueueLen(ctx context.Context) (int, error)
}

// CursorStorage хранит последнюю полученную эпоху для каждого scope
type CursorStorage interface {
	SaveCursor(ctx context.Context, scopeKey string, epoch int64) error

	// GetCursor возвращает 0, если pull для scope еще не выполнялся
	GetCursor(ctx context.Context, scopeKey string) (int64, error)
}

// KVStorage произвольные блобы клиента (например, журнал разрешенных конфликтов).
// Get возвращает nil без ошибки для отсутствующего ключа.
type KVStorage interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// DeviceInfo идентичность устройства и текущая сессия
type DeviceInfo struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name,omitempty"`
	WorkspaceID  string `json:"workspace_id"`
	ServerURL    string `json:"server_url"`
	SessionToken string `json:"session_token,omitempty"`
	ActorID      string `json:"actor_id"`
}

// MetadataStorage метаданные клиента
type MetadataStorage interface {
	SaveDevice(ctx context.Context, info *DeviceInfo) error

	// GetDevice возвращает ErrNotFound до первого подключения
	GetDevice(ctx context.Context) (*DeviceInfo, error)

	// SaveLastSyncTimestamp saves the timestamp of the last successful sync
	SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error

	// GetLastSyncTimestamp retrieves the timestamp of the last successful sync
	// Returns 0 if no sync has been performed yet
	GetLastSyncTimestamp(ctx context.Context) (int64, error)
}

// Storage все хранилища клиента
type Storage interface {
	ReplicaStorage
	OutboxStorage
	CursorStorage
	KVStorage
	MetadataStorage
	Close() error
}
