// Package memory журнал изменений в памяти процесса. Читатели работают с
// неизменяемым снимком, опубликованным через atomic указатель, поэтому
// чтение не ждет записи.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/internal/server/storage"
)

type state struct {
	changes   map[string][]*models.ChangeRecord
	snapshots map[string]*models.Snapshot
	maxEpoch  int64
}

// Log реализует storage.ChangeLog в памяти
type Log struct {
	current atomic.Pointer[state]
	mu      sync.Mutex // сериализует писателей
}

var _ storage.ChangeLog = (*Log)(nil)

// New возвращает пустой журнал
func New() *Log {
	l := &Log{}
	l.current.Store(&state{
		changes:   make(map[string][]*models.ChangeRecord),
		snapshots: make(map[string]*models.Snapshot),
	})
	return l
}

// LoadChanges возвращает копии записей scope после sinceEpoch
func (l *Log) LoadChanges(_ context.Context, scope models.Scope, sinceEpoch int64) ([]*models.ChangeRecord, error) {
	records := l.current.Load().changes[scope.Key()]
	start := sort.Search(len(records), func(i int) bool {
		return records[i].ServerEpoch > sinceEpoch
	})
	out := make([]*models.ChangeRecord, 0, len(records)-start)
	for _, rec := range records[start:] {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

// AppendChanges публикует пакет как новое неизменяемое состояние
func (l *Log) AppendChanges(_ context.Context, records []*models.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.current.Load()
	last := old.maxEpoch
	for _, rec := range records {
		if rec.ServerEpoch <= last {
			return fmt.Errorf("%w: epoch %d after %d", storage.ErrEpochOrder, rec.ServerEpoch, last)
		}
		last = rec.ServerEpoch
	}

	next := &state{
		changes:   make(map[string][]*models.ChangeRecord, len(old.changes)+1),
		snapshots: old.snapshots,
		maxEpoch:  last,
	}
	for k, v := range old.changes {
		next.changes[k] = v
	}
	touched := make(map[string]bool)
	for _, rec := range records {
		key := rec.Scope().Key()
		if !touched[key] {
			// копия до append: читатели old не должны увидеть запись
			next.changes[key] = append([]*models.ChangeRecord(nil), old.changes[key]...)
			touched[key] = true
		}
		cp := *rec
		next.changes[key] = append(next.changes[key], &cp)
	}
	l.current.Store(next)
	return nil
}

// LatestEpoch возвращает максимальную сохраненную эпоху
func (l *Log) LatestEpoch(_ context.Context) (int64, error) {
	return l.current.Load().maxEpoch, nil
}

// SaveSnapshot сохраняет снимок, если он не старше сохраненного
func (l *Log) SaveSnapshot(_ context.Context, snapshot *models.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.current.Load()
	key := models.Scope{Type: snapshot.ScopeType, ID: snapshot.ScopeID}.Key()
	if cur, ok := old.snapshots[key]; ok && cur.Version > snapshot.Version {
		return nil
	}
	next := &state{
		changes:   old.changes,
		snapshots: make(map[string]*models.Snapshot, len(old.snapshots)+1),
		maxEpoch:  old.maxEpoch,
	}
	for k, v := range old.snapshots {
		next.snapshots[k] = v
	}
	cp := *snapshot
	next.snapshots[key] = &cp
	l.current.Store(next)
	return nil
}

// LatestSnapshot возвращает новейший снимок scope
func (l *Log) LatestSnapshot(_ context.Context, scope models.Scope) (*models.Snapshot, error) {
	snap, ok := l.current.Load().snapshots[scope.Key()]
	if !ok {
		return nil, storage.ErrSnapshotNotFound
	}
	cp := *snap
	return &cp, nil
}
