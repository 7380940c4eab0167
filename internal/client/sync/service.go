package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	httpClient "github.com/iudanet/docsync/internal/client/api"
	"github.com/iudanet/docsync/internal/client/ledger"
	"github.com/iudanet/docsync/internal/client/storage"
	"github.com/iudanet/docsync/internal/crdt"
	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/pkg/api"
)

// DefaultPushBatch максимальное число записей outbox в одном push
const DefaultPushBatch = 500

var (
	// ErrProtocolVersion сервер говорит на несовместимой версии протокола
	ErrProtocolVersion = errors.New("incompatible protocol version")
	// ErrNotConnected операция требует сессии, а Connect еще не выполнялся
	ErrNotConnected = errors.New("not connected")
)

//go:generate moq -out service_mock.go . Service

// Service определяет интерфейс клиентской синхронизации
type Service interface {
	// Connect открывает сессию на сервере и сохраняет идентичность устройства
	Connect(ctx context.Context) (*storage.DeviceInfo, error)

	// Edit применяет локальную правку к документу scope и ставит изменение в outbox
	Edit(ctx context.Context, scope models.Scope, message string, fn func(*crdt.Tx) error) (*models.ChangeRecord, error)

	// Sync отправляет outbox и подтягивает изменения scope
	Sync(ctx context.Context, scope models.Scope) (*SyncResult, error)

	// Document возвращает JSON проекцию локального документа
	Document(ctx context.Context, scope models.Scope) ([]byte, error)

	// Compact синхронизирует scope и загружает снимок документа на сервер
	Compact(ctx context.Context, scope models.Scope) (int64, error)

	// Resolve запоминает решение пользователя по конфликтному полю
	Resolve(ctx context.Context, scope models.Scope, path []string, action ledger.Action) error

	// PendingCount возвращает число изменений, еще не принятых сервером
	PendingCount(ctx context.Context) (int, error)

	// Logout отзывает сессию
	Logout(ctx context.Context) error

	Status() Status
}

// Config параметры клиента
type Config struct {
	WorkspaceID string
	DeviceName  string
	ServerURL   string
	PushBatch   int
}

// Conflict поле документа с конкурентными значениями после слияния
type Conflict struct {
	Scope  models.Scope
	Key    string
	Path   []string
	Values []crdt.Value
}

// SyncResult итог одной синхронизации
type SyncResult struct {
	Conflicts  []Conflict
	Ack        models.EpochRange
	Cursor     int64
	Pushed     int
	Pulled     int
	Applied    int
	Duplicates int
	Pending    int
	Suppressed int // конфликты, уже разрешенные ранее
	Skipped    int // записи, которые не удалось разобрать
}

type service struct {
	api      httpClient.ClientAPI
	store    storage.Storage
	ledger   *ledger.Ledger
	logger   *slog.Logger
	now      func() time.Time
	device   *storage.DeviceInfo
	replicas map[string]*crdt.Replica
	status   Status
	cfg      Config
	mu       sync.Mutex
	statusMu sync.Mutex
}

// Option настраивает сервис
type Option func(*service)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService создает новый sync service
func NewService(apiClient httpClient.ClientAPI, store storage.Storage, l *ledger.Ledger, cfg Config, logger *slog.Logger, opts ...Option) Service {
	if cfg.PushBatch <= 0 {
		cfg.PushBatch = DefaultPushBatch
	}
	if l == nil {
		l = ledger.New(store, logger)
	}
	s := &service{
		api:      apiClient,
		store:    store,
		ledger:   l,
		logger:   logger,
		now:      time.Now,
		replicas: make(map[string]*crdt.Replica),
		status:   StatusIdle,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// identityLocked загружает идентичность устройства, создавая ее при первом запуске
func (s *service) identityLocked(ctx context.Context) (*storage.DeviceInfo, error) {
	if s.device != nil {
		return s.device, nil
	}

	info, err := s.store.GetDevice(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		info = &storage.DeviceInfo{ActorID: crdt.NewActorID()}
	case err != nil:
		return nil, fmt.Errorf("failed to load device info: %w", err)
	}

	changed := info.WorkspaceID != s.cfg.WorkspaceID || (s.cfg.ServerURL != "" && info.ServerURL != s.cfg.ServerURL)
	if changed {
		// сессия выдается на один workspace, при смене workspace или сервера она недействительна
		info.WorkspaceID = s.cfg.WorkspaceID
		if s.cfg.ServerURL != "" {
			info.ServerURL = s.cfg.ServerURL
		}
		info.SessionToken = ""
	}
	if s.cfg.DeviceName != "" && info.DeviceName != s.cfg.DeviceName {
		info.DeviceName = s.cfg.DeviceName
		changed = true
	}
	if changed || err != nil {
		if err := s.store.SaveDevice(ctx, info); err != nil {
			return nil, fmt.Errorf("failed to save device info: %w", err)
		}
	}

	s.device = info
	return info, nil
}

// Connect выполняет handshake и сохраняет device id и токен сессии
func (s *service) Connect(ctx context.Context) (*storage.DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.connectLocked(ctx)
	if err != nil {
		return nil, err
	}
	cp := *info
	return &cp, nil
}

func (s *service) connectLocked(ctx context.Context) (*storage.DeviceInfo, error) {
	info, err := s.identityLocked(ctx)
	if err != nil {
		return nil, err
	}

	s.setStatus(StatusConnecting)
	resp, err := s.api.Handshake(ctx, api.HandshakeRequest{
		WorkspaceID: info.WorkspaceID,
		DeviceID:    info.DeviceID,
	})
	if err != nil {
		s.setStatus(statusFor(err))
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if !compatibleVersion(resp.ProtocolVersion) {
		s.setStatus(StatusError)
		return nil, fmt.Errorf("%w: server %q, client %q", ErrProtocolVersion, resp.ProtocolVersion, api.ProtocolVersion)
	}

	info.DeviceID = resp.DeviceID
	info.SessionToken = resp.SessionToken
	if err := s.store.SaveDevice(ctx, info); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.setStatus(StatusOnline)
	s.logger.Info("Connected",
		"workspace_id", info.WorkspaceID,
		"device_id", info.DeviceID,
		"server_epoch", resp.LastEpoch)
	return info, nil
}

// compatibleVersion сравнивает мажорные версии протокола
func compatibleVersion(server string) bool {
	major := func(v string) string {
		m, _, _ := strings.Cut(v, ".")
		return m
	}
	return server != "" && major(server) == major(api.ProtocolVersion)
}

// Logout отзывает сессию на сервере и забывает токен
func (s *service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.identityLocked(ctx)
	if err != nil {
		return err
	}
	if info.SessionToken == "" {
		return ErrNotConnected
	}

	if err := s.api.Logout(ctx, info.SessionToken); err != nil && !errors.Is(err, httpClient.ErrSessionExpired) {
		s.setStatus(statusFor(err))
		return fmt.Errorf("failed to logout: %w", err)
	}

	info.SessionToken = ""
	if err := s.store.SaveDevice(ctx, info); err != nil {
		return fmt.Errorf("failed to save device info: %w", err)
	}
	s.setStatus(StatusIdle)
	return nil
}

// replicaLocked возвращает реплику scope из кэша, хранилища или новую пустую
func (s *service) replicaLocked(ctx context.Context, scope models.Scope) (*crdt.Replica, error) {
	key := scope.Key()
	if r, ok := s.replicas[key]; ok {
		return r, nil
	}

	info, err := s.identityLocked(ctx)
	if err != nil {
		return nil, err
	}

	var r *crdt.Replica
	data, err := s.store.LoadReplica(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r, err = crdt.New(key, nil, crdt.WithActor(info.ActorID), crdt.WithClock(s.now))
		if err != nil {
			return nil, fmt.Errorf("failed to create replica: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load replica: %w", err)
	default:
		r, err = crdt.Load(key, data, crdt.WithActor(info.ActorID), crdt.WithClock(s.now))
		if err != nil {
			return nil, fmt.Errorf("failed to decode replica %s: %w", key, err)
		}
	}

	s.replicas[key] = r
	return r, nil
}

func (s *service) saveReplicaLocked(ctx context.Context, r *crdt.Replica) error {
	data, err := r.Save()
	if err != nil {
		return fmt.Errorf("failed to encode replica: %w", err)
	}
	if err := s.store.SaveReplica(ctx, r.ScopeID(), data); err != nil {
		return fmt.Errorf("failed to save replica: %w", err)
	}
	return nil
}

// dropReplicaLocked выбрасывает реплику из кэша; следующее обращение
// перечитает последнее сохраненное состояние
func (s *service) dropReplicaLocked(scope models.Scope) {
	delete(s.replicas, scope.Key())
}

// Edit применяет fn как одну локальную транзакцию. Изменение сохраняется
// локально и попадает в outbox даже без подключения к серверу.
func (s *service) Edit(ctx context.Context, scope models.Scope, message string, fn func(*crdt.Tx) error) (*models.ChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(ctx, scope, message, fn)
}

func (s *service) editLocked(ctx context.Context, scope models.Scope, message string, fn func(*crdt.Tx) error) (*models.ChangeRecord, error) {
	if !scope.Type.Valid() || scope.ID == "" {
		return nil, fmt.Errorf("invalid scope %q", scope.Key())
	}
	r, err := s.replicaLocked(ctx, scope)
	if err != nil {
		return nil, err
	}

	change, err := r.Change(message, fn)
	if err != nil {
		return nil, err
	}
	if change == nil {
		return nil, nil
	}

	created := s.now().UTC()
	record := &models.ChangeRecord{
		ClientCreatedAt: &created,
		ID:              change.Hash().String(),
		ScopeType:       scope.Type,
		ScopeID:         scope.ID,
		ActorID:         change.Actor,
		DeviceID:        s.device.DeviceID,
		OpType:          models.OpCRDT,
		Payload:         change.Bytes(),
		Lamport:         change.MaxOp(),
	}

	// Изменение, которого нет в outbox, не должно остаться в реплике:
	// следующие правки актора зависели бы от него, и пиры ждали бы его вечно.
	seq, err := s.store.Enqueue(ctx, record)
	if err != nil {
		s.dropReplicaLocked(scope)
		return nil, fmt.Errorf("failed to enqueue change: %w", err)
	}
	if err := s.saveReplicaLocked(ctx, r); err != nil {
		if rmErr := s.store.RemoveQueued(ctx, []uint64{seq}); rmErr != nil {
			// запись осталась в outbox, реплика в памяти с ней согласована
			s.logger.Error("Failed to withdraw queued change", "scope", scope.Key(), "change", record.ID, "error", rmErr)
			return nil, err
		}
		s.dropReplicaLocked(scope)
		return nil, err
	}

	s.logger.Debug("Local edit queued", "scope", scope.Key(), "change", record.ID)
	return record, nil
}

// Document возвращает детерминированную JSON проекцию документа
func (s *service) Document(ctx context.Context, scope models.Scope) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.replicaLocked(ctx, scope)
	if err != nil {
		return nil, err
	}
	return r.JSON()
}

// Resolve записывает решение в журнал конфликтов. accept дополнительно
// фиксирует текущее победившее значение новой правкой, снимая конфликт
// во всех репликах после синхронизации.
func (s *service) Resolve(ctx context.Context, scope models.Scope, path []string, action ledger.Action) error {
	if !action.Valid() {
		return fmt.Errorf("unknown resolution action %q", action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.identityLocked(ctx)
	if err != nil {
		return err
	}

	if action == ledger.ActionAccept {
		_, err := s.editLocked(ctx, scope, "resolve "+strings.Join(path, "."), func(tx *crdt.Tx) error {
			v, ok := tx.Get(path)
			if !ok {
				return fmt.Errorf("%w: %s", crdt.ErrInvalidPath, strings.Join(path, "."))
			}
			return tx.Set(path, v)
		})
		if err != nil {
			return fmt.Errorf("failed to accept resolution: %w", err)
		}
	}

	s.ledger.Persist(ledgerKey(scope, path, info.DeviceID), action)
	return nil
}

// PendingCount возвращает длину outbox
func (s *service) PendingCount(ctx context.Context) (int, error) {
	n, err := s.store.QueueLen(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending changes: %w", err)
	}
	return n, nil
}
