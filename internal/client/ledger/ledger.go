// Package ledger запоминает, как пользователь разрешил конфликты синхронизации,
// чтобы то же спорное поле не предлагалось повторно. Записи живут только на
// устройстве и истекают через TTL.
package ledger

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/iudanet/docsync/internal/models"
)

const (
	// StorageKey ключ, под которым хранится весь набор записей
	StorageKey = "sync-conflict-resolutions"
	// TTL ограничивает время жизни решения
	TTL = time.Hour
)

// Action решение пользователя по конфликту
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionRebase  Action = "rebase"
)

// Valid сообщает, известно ли действие a
func (a Action) Valid() bool {
	return a == ActionAccept || a == ActionDecline || a == ActionRebase
}

// Entry одно сохраненное решение. At в unix миллисекундах.
type Entry struct {
	Key    string `json:"key"`
	Action Action `json:"action"`
	At     int64  `json:"at"`
}

// Entries отображает ключи в записи; это же форма JSON на диске
type Entries map[string]Entry

// Store локальное хранилище blob устройства, через которое пишет ledger.
// Для отсутствующего ключа Get возвращает nil данные и nil ошибку.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Key строит ключ записи для спорной записи scope на устройстве.
// Пустой recordID дает ключ уровня scope.
func Key(scope models.Scope, recordID, deviceID string) string {
	if recordID == "" {
		return scope.Key() + ":" + deviceID
	}
	return scope.Key() + ":" + recordID + ":" + deviceID
}

// Prune возвращает записи не старше TTL на момент now. Вход не меняется.
func Prune(entries Entries, now time.Time) Entries {
	cutoff := now.UnixMilli() - TTL.Milliseconds()
	out := make(Entries, len(entries))
	for k, e := range entries {
		if e.At >= cutoff {
			out[k] = e
		}
	}
	return out
}

// Ledger читает и пишет записи через Store. Ошибки хранилища логируются,
// и ledger продолжает работать из памяти.
type Ledger struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	mem    Entries
	mu     sync.Mutex
}

// Option настраивает Ledger
type Option func(*Ledger)

// WithClock переопределяет источник времени
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New создает ledger. С nil store записи живут только в памяти.
func New(store Store, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Ledger{
		store:  store,
		logger: logger,
		now:    time.Now,
		mem:    make(Entries),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load возвращает живые записи. Хранилище перезаписывается, только если
// очистка что-то удалила.
func (l *Ledger) Load() Entries {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.loadLocked())
}

func (l *Ledger) loadLocked() Entries {
	now := l.now()
	current, fromStore := l.readLocked()
	pruned := Prune(current, now)
	l.mem = pruned
	if fromStore && len(pruned) != len(current) {
		l.writeLocked(pruned)
	}
	return pruned
}

// readLocked возвращает сохраненный набор и признак, что он из хранилища
func (l *Ledger) readLocked() (Entries, bool) {
	if l.store == nil {
		return l.mem, false
	}
	raw, err := l.store.Get(StorageKey)
	if err != nil {
		l.logger.Warn("Conflict ledger storage unavailable, using memory", "error", err)
		return l.mem, false
	}
	if len(raw) == 0 {
		return make(Entries), true
	}
	var entries Entries
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.logger.Warn("Discarding unreadable conflict ledger", "error", err)
		return make(Entries), true
	}
	if entries == nil {
		entries = make(Entries)
	}
	return entries, true
}

func (l *Ledger) writeLocked(entries Entries) {
	if l.store == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		l.logger.Error("Failed to encode conflict ledger", "error", err)
		return
	}
	if err := l.store.Put(StorageKey, raw); err != nil {
		l.logger.Warn("Failed to persist conflict ledger", "error", err)
	}
}

// Persist записывает action для key, заменяя прежнее решение
func (l *Ledger) Persist(key string, action Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := maps.Clone(l.loadLocked())
	entries[key] = Entry{Key: key, Action: action, At: l.now().UnixMilli()}
	l.mem = entries
	l.writeLocked(entries)
}

// Lookup возвращает живую запись для key
func (l *Ledger) Lookup(key string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.loadLocked()[key]
	return e, ok
}

// MemoryStore реализация Store поверх map
type MemoryStore struct {
	data map[string][]byte
	mu   sync.Mutex
}

// NewMemoryStore создает пустой MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
