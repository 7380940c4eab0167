package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/docsync/internal/client/storage"
	"github.com/iudanet/docsync/internal/models"
)

func change(scopeID string) *models.ChangeRecord {
	return &models.ChangeRecord{
		ID:        "id-" + scopeID,
		ScopeType: models.ScopeRequest,
		ScopeID:   scopeID,
		ActorID:   "actor",
		OpType:    models.OpCRDT,
		Payload:   []byte(scopeID),
	}
}

func scopeIDs(qs []storage.QueuedChange) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.Record.ScopeID
	}
	return ids
}

func TestOutbox_FIFO(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	var seqs []uint64
	// больше 255 записей проверяет порядок ключей за пределами одного байта
	for i := 0; i < 300; i++ {
		seq, err := store.Enqueue(ctx, change(string(rune('a'+i%26))))
		require.NoError(t, err)
		seqs = append(seqs, seq)
	}
	for i := 1; i < len(seqs); i++ {
		require.Greater(t, seqs[i], seqs[i-1])
	}

	all, err := store.ListQueued(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 300)
	for i, q := range all {
		assert.Equal(t, seqs[i], q.Seq)
	}

	first, err := store.ListQueued(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, scopeIDs(first))
	assert.Equal(t, []byte("a"), first[0].Record.Payload)
}

func TestOutbox_Remove(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	for _, id := range []string{"r1", "r2", "r3"} {
		_, err := store.Enqueue(ctx, change(id))
		require.NoError(t, err)
	}

	queued, err := store.ListQueued(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, store.RemoveQueued(ctx, []uint64{queued[0].Seq, queued[1].Seq, 999}))
	require.NoError(t, store.RemoveQueued(ctx, nil))

	rest, err := store.ListQueued(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3"}, scopeIDs(rest))

	n, err := store.QueueLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// новые записи встают после оставшихся
	_, err = store.Enqueue(ctx, change("r4"))
	require.NoError(t, err)
	rest, err = store.ListQueued(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r4"}, scopeIDs(rest))
}
