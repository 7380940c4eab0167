package ledger

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/docsync/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// countingStore wraps MemoryStore and counts writes; failGet/failPut simulate
// unavailable storage.
type countingStore struct {
	*MemoryStore
	puts    int
	failGet bool
	failPut bool
	mu      sync.Mutex
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore()}
}

func (s *countingStore) Get(key string) ([]byte, error) {
	if s.failGet {
		return nil, errors.New("storage offline")
	}
	return s.MemoryStore.Get(key)
}

func (s *countingStore) Put(key string, value []byte) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	if s.failPut {
		return errors.New("disk full")
	}
	return s.MemoryStore.Put(key, value)
}

func seed(t *testing.T, s Store, entries Entries) {
	t.Helper()
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, s.Put(StorageKey, raw))
}

func TestPrune(t *testing.T) {
	now := baseTime
	fresh := Entry{Key: "fresh", Action: ActionAccept, At: now.UnixMilli() - 1000}
	edge := Entry{Key: "edge", Action: ActionDecline, At: now.Add(-TTL).UnixMilli()}
	stale := Entry{Key: "stale", Action: ActionRebase, At: now.Add(-TTL).UnixMilli() - 1}

	in := Entries{fresh.Key: fresh, edge.Key: edge, stale.Key: stale}
	out := Prune(in, now)

	assert.Equal(t, Entries{fresh.Key: fresh, edge.Key: edge}, out)
	assert.Len(t, in, 3, "input must not be modified")
	assert.Empty(t, Prune(nil, now))
}

func TestKey(t *testing.T) {
	scope := models.Scope{Type: models.ScopeRequest, ID: "r1"}
	assert.Equal(t, "request:r1:headers.x-trace:dev-a", Key(scope, "headers.x-trace", "dev-a"))
	assert.Equal(t, "request:r1:dev-a", Key(scope, "", "dev-a"))
}

func TestAction_Valid(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionAccept, true},
		{ActionDecline, true},
		{ActionRebase, true},
		{"merge", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Valid())
		})
	}
}

func TestLoad_AbsentStorage(t *testing.T) {
	store := newCountingStore()
	l := New(store, nil, WithClock(func() time.Time { return baseTime }))

	assert.Empty(t, l.Load())
	assert.Zero(t, store.puts, "empty storage must not be rewritten")
}

func TestLoad_RewritesOnlyWhenPruned(t *testing.T) {
	now := baseTime
	fresh := Entry{Key: "a", Action: ActionAccept, At: now.UnixMilli() - 1000}
	stale := Entry{Key: "b", Action: ActionDecline, At: now.Add(-TTL).UnixMilli() - 1}

	t.Run("nothing pruned", func(t *testing.T) {
		store := newCountingStore()
		seed(t, store.MemoryStore, Entries{fresh.Key: fresh})
		l := New(store, nil, WithClock(func() time.Time { return now }))

		assert.Equal(t, Entries{fresh.Key: fresh}, l.Load())
		assert.Zero(t, store.puts)
	})

	t.Run("stale entry compacted", func(t *testing.T) {
		store := newCountingStore()
		seed(t, store.MemoryStore, Entries{fresh.Key: fresh, stale.Key: stale})
		l := New(store, nil, WithClock(func() time.Time { return now }))

		assert.Equal(t, Entries{fresh.Key: fresh}, l.Load())
		assert.Equal(t, 1, store.puts)

		raw, err := store.Get(StorageKey)
		require.NoError(t, err)
		var stored Entries
		require.NoError(t, json.Unmarshal(raw, &stored))
		assert.Equal(t, Entries{fresh.Key: fresh}, stored)
	})
}

func TestLoad_CorruptBlob(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(StorageKey, []byte("{not json")))
	l := New(store, nil)
	assert.Empty(t, l.Load())
}

func TestPersist(t *testing.T) {
	now := baseTime
	store := newCountingStore()
	l := New(store, nil, WithClock(func() time.Time { return now }))

	l.Persist("k1", ActionAccept)
	l.Persist("k1", ActionAccept)

	want := Entries{"k1": {Key: "k1", Action: ActionAccept, At: now.UnixMilli()}}
	assert.Equal(t, want, l.Load(), "repeated persist is idempotent")

	raw, err := store.Get(StorageKey)
	require.NoError(t, err)
	var stored Entries
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, want, stored)

	// другой экземпляр видит то же самое через хранилище
	other := New(store, nil, WithClock(func() time.Time { return now }))
	e, ok := other.Lookup("k1")
	require.True(t, ok)
	assert.Equal(t, ActionAccept, e.Action)

	l.Persist("k1", ActionRebase)
	e, ok = other.Lookup("k1")
	require.True(t, ok)
	assert.Equal(t, ActionRebase, e.Action)
}

func TestLookup_Expires(t *testing.T) {
	now := baseTime
	l := New(nil, nil, WithClock(func() time.Time { return now }))

	l.Persist("k", ActionDecline)
	_, ok := l.Lookup("k")
	assert.True(t, ok)

	now = now.Add(TTL + time.Millisecond)
	_, ok = l.Lookup("k")
	assert.False(t, ok)
}

func TestStorageFailureDegradesToMemory(t *testing.T) {
	store := newCountingStore()
	store.failGet = true
	store.failPut = true
	l := New(store, nil, WithClock(func() time.Time { return baseTime }))

	assert.Empty(t, l.Load())
	l.Persist("k", ActionAccept)

	e, ok := l.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, ActionAccept, e.Action)
	assert.Equal(t, 1, store.puts)
}
