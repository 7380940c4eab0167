package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/docsync/internal/client/api"
	"github.com/iudanet/docsync/internal/client/storage/boltdb"
	"github.com/iudanet/docsync/internal/crdt"
	"github.com/iudanet/docsync/internal/models"
)

var errDiskFull = errors.New("disk full")

// flakyStore отказывает в записи заданное число раз
type flakyStore struct {
	*boltdb.Storage
	enqueueFails int
	saveFails    int
}

func (f *flakyStore) Enqueue(ctx context.Context, record *models.ChangeRecord) (uint64, error) {
	if f.enqueueFails > 0 {
		f.enqueueFails--
		return 0, errDiskFull
	}
	return f.Storage.Enqueue(ctx, record)
}

func (f *flakyStore) SaveReplica(ctx context.Context, scopeKey string, data []byte) error {
	if f.saveFails > 0 {
		f.saveFails--
		return errDiskFull
	}
	return f.Storage.SaveReplica(ctx, scopeKey, data)
}

func TestEdit_FailedWriteLeavesNoTrace(t *testing.T) {
	tests := []struct {
		name         string
		enqueueFails int
		saveFails    int
	}{
		{name: "outbox write fails", enqueueFails: 1},
		{name: "replica save fails", saveFails: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &flakyStore{Storage: newStore(t), enqueueFails: tt.enqueueFails, saveFails: tt.saveFails}
			svc := NewService(&httpClient.ClientAPIMock{}, store, nil, Config{WorkspaceID: "ws"}, testLogger())

			_, err := svc.Edit(ctx, testScope, "first", setName("first"))
			require.ErrorIs(t, err, errDiskFull)

			doc, err := svc.Document(ctx, testScope)
			require.NoError(t, err)
			assert.JSONEq(t, `{}`, string(doc), "failed edit must not stay in the document")

			n, err := svc.PendingCount(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)

			_, err = svc.Edit(ctx, testScope, "second", func(tx *crdt.Tx) error {
				return tx.Set([]string{"other"}, crdt.String("x"))
			})
			require.NoError(t, err)

			// пир, получивший только outbox, сходится без зависших изменений
			queued, err := store.ListQueued(ctx, 0)
			require.NoError(t, err)
			require.Len(t, queued, 1)

			changes := make([]*crdt.Change, 0, len(queued))
			for _, q := range queued {
				c, err := crdt.DecodeChange(q.Record.Payload)
				require.NoError(t, err)
				changes = append(changes, c)
			}

			peer, err := crdt.New(testScope.Key(), nil)
			require.NoError(t, err)
			res, err := peer.ApplyChanges(changes)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Applied)
			assert.Zero(t, res.Pending)

			peerDoc, err := peer.JSON()
			require.NoError(t, err)
			assert.JSONEq(t, `{"other":"x"}`, string(peerDoc))

			// сохраненная реплика совпадает с outbox после перезапуска
			restarted := NewService(&httpClient.ClientAPIMock{}, store, nil, Config{WorkspaceID: "ws"}, testLogger())
			doc, err = restarted.Document(ctx, testScope)
			require.NoError(t, err)
			assert.JSONEq(t, `{"other":"x"}`, string(doc))
		})
	}
}

func TestResolveAccept_FailedWriteKeepsDocument(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Storage: newStore(t)}
	svc := NewService(&httpClient.ClientAPIMock{}, store, nil, Config{WorkspaceID: "ws"}, testLogger())

	_, err := svc.Edit(ctx, testScope, "", setName("Foo"))
	require.NoError(t, err)

	store.enqueueFails = 1
	require.ErrorIs(t, svc.Resolve(ctx, testScope, []string{"name"}, "accept"), errDiskFull)

	n, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// повтор после сбоя проходит и ставит ровно одну запись
	require.NoError(t, svc.Resolve(ctx, testScope, []string{"name"}, "accept"))
	n, err = svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
