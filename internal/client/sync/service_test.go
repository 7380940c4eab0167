package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/docsync/internal/client/api"
	"github.com/iudanet/docsync/internal/client/ledger"
	"github.com/iudanet/docsync/internal/client/storage"
	"github.com/iudanet/docsync/internal/client/storage/boltdb"
	"github.com/iudanet/docsync/internal/crdt"
	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/pkg/api"
)

var testScope = models.Scope{Type: models.ScopeRequest, ID: "r1"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *boltdb.Storage {
	t.Helper()
	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func handshakeOK(ctx context.Context, req api.HandshakeRequest) (*api.HandshakeResponse, error) {
	return &api.HandshakeResponse{
		ProtocolVersion: api.ProtocolVersion,
		DeviceID:        "dev-1",
		SessionToken:    "tok",
	}, nil
}

func newMockService(t *testing.T, mock *httpClient.ClientAPIMock) (*service, *boltdb.Storage) {
	t.Helper()
	store := newStore(t)
	svc := NewService(mock, store, nil, Config{WorkspaceID: "ws", ServerURL: "http://sync"}, testLogger())
	return svc.(*service), store
}

// remoteRecord оборачивает изменение чужой реплики в запись протокола
func remoteRecord(t *testing.T, c *crdt.Change, epoch int64) *models.ChangeRecord {
	t.Helper()
	require.NotNil(t, c)
	return &models.ChangeRecord{
		ID:          c.Hash().String(),
		ScopeType:   testScope.Type,
		ScopeID:     testScope.ID,
		ActorID:     c.Actor,
		OpType:      models.OpCRDT,
		Payload:     c.Bytes(),
		ServerEpoch: epoch,
	}
}

func setName(v string) func(tx *crdt.Tx) error {
	return func(tx *crdt.Tx) error {
		return tx.Set([]string{"name"}, crdt.String(v))
	}
}

func TestEdit_WorksOffline(t *testing.T) {
	ctx := context.Background()
	svc, store := newMockService(t, &httpClient.ClientAPIMock{})

	rec, err := svc.Edit(ctx, testScope, "rename", setName("Foo"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.OpCRDT, rec.OpType)
	assert.Equal(t, "r1", rec.ScopeID)
	assert.NotEmpty(t, rec.Payload)
	assert.NotNil(t, rec.ClientCreatedAt)

	// правка без изменений не попадает в outbox
	rec, err = svc.Edit(ctx, testScope, "noop", func(tx *crdt.Tx) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, rec)

	n, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, err := svc.Document(ctx, testScope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Foo"}`, string(doc))

	// реплика переживает перезапуск сервиса
	again := NewService(&httpClient.ClientAPIMock{}, store, nil, Config{WorkspaceID: "ws"}, testLogger())
	doc, err = again.Document(ctx, testScope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Foo"}`, string(doc))

	_, err = svc.Edit(ctx, models.Scope{Type: "bogus", ID: "x"}, "", setName("x"))
	assert.Error(t, err)
	assert.Equal(t, StatusIdle, svc.Status())
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("stores device and token", func(t *testing.T) {
		mock := &httpClient.ClientAPIMock{HandshakeFunc: handshakeOK}
		svc, store := newMockService(t, mock)

		info, err := svc.Connect(ctx)
		require.NoError(t, err)
		assert.Equal(t, "dev-1", info.DeviceID)
		assert.Equal(t, StatusOnline, svc.Status())

		saved, err := store.GetDevice(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok", saved.SessionToken)
		assert.Equal(t, "ws", saved.WorkspaceID)
		assert.NotEmpty(t, saved.ActorID)

		// повторный handshake передает сохраненный device id
		_, err = svc.Connect(ctx)
		require.NoError(t, err)
		calls := mock.HandshakeCalls()
		require.Len(t, calls, 2)
		assert.Empty(t, calls[0].Req.DeviceID)
		assert.Equal(t, "dev-1", calls[1].Req.DeviceID)
	})

	t.Run("network failure goes offline", func(t *testing.T) {
		mock := &httpClient.ClientAPIMock{
			HandshakeFunc: func(ctx context.Context, req api.HandshakeRequest) (*api.HandshakeResponse, error) {
				return nil, &net.OpError{Op: "dial", Err: errors.New("connection refused")}
			},
		}
		svc, _ := newMockService(t, mock)

		_, err := svc.Connect(ctx)
		require.Error(t, err)
		assert.Equal(t, StatusOffline, svc.Status())
	})

	t.Run("server rejection is a protocol error", func(t *testing.T) {
		mock := &httpClient.ClientAPIMock{
			HandshakeFunc: func(ctx context.Context, req api.HandshakeRequest) (*api.HandshakeResponse, error) {
				return nil, &httpClient.StatusError{StatusCode: 400, Message: "bad request"}
			},
		}
		svc, _ := newMockService(t, mock)

		_, err := svc.Connect(ctx)
		require.Error(t, err)
		assert.Equal(t, StatusError, svc.Status())
	})

	t.Run("incompatible protocol", func(t *testing.T) {
		mock := &httpClient.ClientAPIMock{
			HandshakeFunc: func(ctx context.Context, req api.HandshakeRequest) (*api.HandshakeResponse, error) {
				return &api.HandshakeResponse{ProtocolVersion: "2.0.0", DeviceID: "d", SessionToken: "t"}, nil
			},
		}
		svc, _ := newMockService(t, mock)

		_, err := svc.Connect(ctx)
		assert.ErrorIs(t, err, ErrProtocolVersion)
		assert.Equal(t, StatusError, svc.Status())
	})
}

func TestCompatibleVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", true},
		{"1.4.2", true},
		{"2.0.0", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, compatibleVersion(tt.version))
		})
	}
}

func TestSync_ConflictsFilteredByLedger(t *testing.T) {
	ctx := context.Background()

	remote, err := crdt.New(testScope.Key(), nil, crdt.WithActor("remote"))
	require.NoError(t, err)
	first, err := remote.Change("", setName("remote"))
	require.NoError(t, err)
	second, err := remote.Change("", setName("remote-2"))
	require.NoError(t, err)

	pulls := map[int64][]*models.ChangeRecord{
		0: {remoteRecord(t, first, 1)},
		2: {remoteRecord(t, second, 3)},
	}
	mock := &httpClient.ClientAPIMock{
		HandshakeFunc: handshakeOK,
		PushFunc: func(ctx context.Context, token string, req api.PushRequest) (*api.PushResponse, error) {
			assert.Equal(t, "tok", token)
			return &api.PushResponse{Conflicts: []string{}, Ack: models.EpochRange{MinEpoch: 2, MaxEpoch: 2}}, nil
		},
		PullFunc: func(ctx context.Context, token string, req api.PullRequest) (*api.PullResponse, error) {
			return &api.PullResponse{Changes: pulls[req.SinceEpoch]}, nil
		},
	}
	svc, store := newMockService(t, mock)

	_, err = svc.Edit(ctx, testScope, "", setName("local"))
	require.NoError(t, err)

	res, err := svc.Sync(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pushed)
	assert.Equal(t, models.EpochRange{MinEpoch: 2, MaxEpoch: 2}, res.Ack)
	assert.Equal(t, 1, res.Pulled)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, int64(1), res.Cursor)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, []string{"name"}, res.Conflicts[0].Path)
	assert.Len(t, res.Conflicts[0].Values, 2)
	assert.Equal(t, "request:r1:name:dev-1", res.Conflicts[0].Key)

	queued, err := store.QueueLen(ctx)
	require.NoError(t, err)
	assert.Zero(t, queued, "acknowledged changes leave the outbox")

	require.NoError(t, svc.Resolve(ctx, testScope, []string{"name"}, ledger.ActionDecline))
	// курсор сдвинут вручную, чтобы следующий pull вернул второе изменение
	require.NoError(t, store.SaveCursor(ctx, testScope.Key(), 2))

	res, err = svc.Sync(ctx, testScope)
	require.NoError(t, err)
	assert.Zero(t, res.Pushed)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 1, res.Suppressed)
	assert.Equal(t, int64(3), res.Cursor)
	assert.Len(t, mock.PushCalls(), 1, "empty outbox is not pushed")

	last, err := store.GetLastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.NotZero(t, last)
}

func TestSync_SkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	mock := &httpClient.ClientAPIMock{
		HandshakeFunc: handshakeOK,
		PullFunc: func(ctx context.Context, token string, req api.PullRequest) (*api.PullResponse, error) {
			return &api.PullResponse{Changes: []*models.ChangeRecord{
				{ID: "a", OpType: models.OpCRDT, Payload: []byte("garbage"), ServerEpoch: 4},
				{ID: "b", OpType: models.OpInsert, Payload: []byte("{}"), ServerEpoch: 5},
			}}, nil
		},
	}
	svc, _ := newMockService(t, mock)

	res, err := svc.Sync(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, int64(5), res.Cursor, "cursor advances past skipped records")
}

func TestSync_ReconnectsOnceOnExpiredSession(t *testing.T) {
	ctx := context.Background()
	expired := &httpClient.StatusError{StatusCode: 401, Message: "session expired"}

	pullCalls := 0
	mock := &httpClient.ClientAPIMock{
		HandshakeFunc: handshakeOK,
		PullFunc: func(ctx context.Context, token string, req api.PullRequest) (*api.PullResponse, error) {
			pullCalls++
			if pullCalls == 1 {
				return nil, expired
			}
			return &api.PullResponse{Changes: []*models.ChangeRecord{}}, nil
		},
	}
	svc, _ := newMockService(t, mock)

	_, err := svc.Sync(ctx, testScope)
	require.NoError(t, err)
	assert.Len(t, mock.HandshakeCalls(), 2, "initial connect plus one renewal")
	assert.Equal(t, StatusOnline, svc.Status())

	t.Run("gives up after one retry", func(t *testing.T) {
		mock := &httpClient.ClientAPIMock{
			HandshakeFunc: handshakeOK,
			PullFunc: func(ctx context.Context, token string, req api.PullRequest) (*api.PullResponse, error) {
				return nil, expired
			},
		}
		svc, _ := newMockService(t, mock)

		_, err := svc.Sync(ctx, testScope)
		assert.ErrorIs(t, err, httpClient.ErrSessionExpired)
		assert.Len(t, mock.PullCalls(), 2)
		assert.Equal(t, StatusError, svc.Status())
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	svc, store := newMockService(t, &httpClient.ClientAPIMock{})

	_, err := svc.Edit(ctx, testScope, "", setName("Foo"))
	require.NoError(t, err)

	require.Error(t, svc.Resolve(ctx, testScope, []string{"name"}, "merge"))
	require.Error(t, svc.Resolve(ctx, testScope, []string{"missing"}, ledger.ActionAccept))

	require.NoError(t, svc.Resolve(ctx, testScope, []string{"name"}, ledger.ActionAccept))
	n, err := store.QueueLen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "accept writes the winning value back")

	// журнал пишется в kv хранилище клиента
	raw, err := store.Get(ledger.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"action":"accept"`)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	mock := &httpClient.ClientAPIMock{
		HandshakeFunc: handshakeOK,
		LogoutFunc: func(ctx context.Context, token string) error {
			assert.Equal(t, "tok", token)
			return nil
		},
	}
	svc, store := newMockService(t, mock)

	assert.ErrorIs(t, svc.Logout(ctx), ErrNotConnected)

	_, err := svc.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, StatusIdle, svc.Status())

	info, err := store.GetDevice(ctx)
	require.NoError(t, err)
	assert.Empty(t, info.SessionToken)
	assert.Equal(t, "dev-1", info.DeviceID, "device identity survives logout")
}

func TestIdentity_WorkspaceChangeDropsSession(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveDevice(ctx, &storage.DeviceInfo{
		DeviceID:     "dev-1",
		WorkspaceID:  "old",
		SessionToken: "old-token",
		ActorID:      "actor",
	}))

	svc := NewService(&httpClient.ClientAPIMock{}, store, nil, Config{WorkspaceID: "new"}, testLogger(),
		WithClock(func() time.Time { return time.Unix(0, 0) }))
	_, err := svc.Edit(ctx, testScope, "", setName("x"))
	require.NoError(t, err)

	info, err := store.GetDevice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", info.WorkspaceID)
	assert.Empty(t, info.SessionToken)
	assert.Equal(t, "actor", info.ActorID)
}
