package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

var (
	reqScope = models.Scope{Type: models.ScopeRequest, ID: "req-1"}
	envScope = models.Scope{Type: models.ScopeEnvironment, ID: "env-1"}
)

func newRecord(scope models.Scope, epoch int64) *models.ChangeRecord {
	created := time.UnixMilli(1700000000000 + epoch).UTC()
	return &models.ChangeRecord{
		ID:          uuid.New().String(),
		ScopeType:   scope.Type,
		ScopeID:     scope.ID,
		ActorID:     "actor-1",
		DeviceID:    "device-1",
		OpType:      models.OpCRDT,
		Payload:     []byte{0xa1, byte(epoch)},
		Lamport:     uint64(epoch * 10),
		ServerEpoch: epoch,
		CreatedAt:   created,
	}
}

func TestStorage_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first := newRecord(reqScope, 1)
	client := time.UnixMilli(1600000000000).UTC()
	first.ClientCreatedAt = &client

	require.NoError(t, s.AppendChanges(ctx, []*models.ChangeRecord{first, newRecord(envScope, 2), newRecord(reqScope, 3)}))

	tests := []struct {
		name   string
		scope  models.Scope
		since  int64
		epochs []int64
	}{
		{"all request changes", reqScope, 0, []int64{1, 3}},
		{"request since 1", reqScope, 1, []int64{3}},
		{"environment", envScope, 0, []int64{2}},
		{"nothing new", reqScope, 3, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.LoadChanges(ctx, tt.scope, tt.since)
			require.NoError(t, err)
			epochs := make([]int64, 0)
			for _, r := range got {
				epochs = append(epochs, r.ServerEpoch)
			}
			assert.Equal(t, tt.epochs, epochs)
		})
	}

	got, err := s.LoadChanges(ctx, reqScope, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, first.Payload, got[0].Payload)
	assert.Equal(t, first.Lamport, got[0].Lamport)
	assert.Equal(t, first.CreatedAt, got[0].CreatedAt)
	require.NotNil(t, got[0].ClientCreatedAt)
	assert.Equal(t, client, *got[0].ClientCreatedAt)
	assert.Nil(t, got[1].ClientCreatedAt)
}

func TestStorage_AppendIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.AppendChanges(ctx, []*models.ChangeRecord{newRecord(reqScope, 1)}))

	err := s.AppendChanges(ctx, []*models.ChangeRecord{newRecord(reqScope, 2), newRecord(reqScope, 2)})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrEpochOrder)

	got, err := s.LoadChanges(ctx, reqScope, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	latest, err := s.LatestEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), latest)
}

func TestStorage_LatestEpochSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "changes.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	latest, err := s.LatestEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	require.NoError(t, s.AppendChanges(ctx, []*models.ChangeRecord{newRecord(reqScope, 7), newRecord(reqScope, 8)}))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	latest, err = reopened.LatestEpoch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), latest)

	got, err := reopened.LoadChanges(ctx, reqScope, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(8), got[0].ServerEpoch)

	// повторное открытие не применяет миграции заново
	version, err := reopened.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestStorage_Snapshots(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.LatestSnapshot(ctx, reqScope)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	for _, v := range []int64{4, 9, 6} {
		require.NoError(t, s.SaveSnapshot(ctx, &models.Snapshot{
			ScopeType:         reqScope.Type,
			ScopeID:           reqScope.ID,
			Version:           v,
			PayloadCompressed: []byte{byte(v)},
			CreatedAt:         time.UnixMilli(1700000000000).UTC(),
		}))
	}

	snap, err := s.LatestSnapshot(ctx, reqScope)
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.Version)
	assert.Equal(t, []byte{9}, snap.PayloadCompressed)
	assert.Equal(t, reqScope.ID, snap.ScopeID)

	_, err = s.LatestSnapshot(ctx, envScope)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)
}
