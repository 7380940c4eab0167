// Package coordinator реализует серверную сторону протокола синхронизации.
// Он владеет таблицей сессий и счетчиком эпох и переносит записи изменений
// между устройствами и журналом.
//
// Эпохи выдает один счетчик на все scope. Push может затрагивать несколько
// scope, поэтому подтверждение это один непрерывный диапазон, а порядок
// внутри scope следует из глобального.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/internal/server/hub"
	"github.com/iudanet/docsync/internal/server/jwt"
	"github.com/iudanet/docsync/internal/server/storage"
)

const (
	DefaultSessionTTL      = 5 * time.Minute
	DefaultProtocolVersion = "1.0.0"
	DefaultSweepInterval   = time.Minute
)

// Publisher получает событие после каждого принятого непустого push
type Publisher interface {
	Publish(ev hub.Event)
}

// HandshakeResult результат Handshake
type HandshakeResult struct {
	ServerTime      time.Time
	ProtocolVersion string
	DeviceID        string
	SessionToken    string
	LastEpoch       int64
}

// PullResult записи одного scope новее запрошенной эпохи.
// Snapshot заполняется только при холодном старте (sinceEpoch == 0),
// если у scope есть снимок.
type PullResult struct {
	Snapshot *models.Snapshot
	Changes  []*models.ChangeRecord
}

// PushResult подтверждение push. Conflicts всегда пуст: слияние не падает,
// спорные поля сообщают сами реплики.
type PushResult struct {
	Conflicts []string
	Ack       models.EpochRange
}

// Option настраивает Coordinator
type Option func(*Coordinator)

// WithClock задает источник времени для истечения сессий и меток времени
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithSessionTTL задает скользящее время жизни сессии
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.sessionTTL = ttl }
}

// WithProtocolVersion переопределяет версию, которую сообщает Handshake
func WithProtocolVersion(v string) Option {
	return func(c *Coordinator) { c.protocolVersion = v }
}

// WithPublisher задает получателя уведомлений об изменениях
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// Coordinator безопасен для конкурентного использования
type Coordinator struct {
	log       storage.ChangeLog
	publisher Publisher
	tokens    *jwt.Service
	logger    *slog.Logger
	now       func() time.Time
	sessions  map[string]*models.Session

	protocolVersion string
	sessionTTL      time.Duration

	epoch   int64
	epochMu sync.Mutex
	sessMu  sync.Mutex
}

// New создает координатор. Счетчик эпох продолжается с максимальной
// эпохи, уже сохраненной в log.
func New(ctx context.Context, log storage.ChangeLog, tokens *jwt.Service, logger *slog.Logger, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		log:             log,
		tokens:          tokens,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		sessions:        make(map[string]*models.Session),
		protocolVersion: DefaultProtocolVersion,
		sessionTTL:      DefaultSessionTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	epoch, err := log.LatestEpoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest epoch: %w", err)
	}
	c.epoch = epoch

	logger.Info("Coordinator started", "epoch", epoch, "session_ttl", c.sessionTTL.String())
	return c, nil
}

// LastEpoch возвращает максимальную выданную эпоху
func (c *Coordinator) LastEpoch() int64 {
	c.epochMu.Lock()
	defer c.epochMu.Unlock()
	return c.epoch
}

// Pull возвращает записи scope с ServerEpoch > sinceEpoch в порядке эпох
func (c *Coordinator) Pull(ctx context.Context, token, workspaceID string, scope models.Scope, sinceEpoch int64) (*PullResult, error) {
	session, err := c.Authorize(token, workspaceID)
	if err != nil {
		return nil, err
	}
	if !scope.Type.Valid() || scope.ID == "" {
		return nil, fmt.Errorf("%w: bad scope %q", ErrInvalidRequest, scope.Key())
	}
	if sinceEpoch < 0 {
		sinceEpoch = 0
	}

	changes, err := c.log.LoadChanges(ctx, scope, sinceEpoch)
	if err != nil {
		return nil, fmt.Errorf("failed to load changes: %w", err)
	}
	if changes == nil {
		changes = []*models.ChangeRecord{}
	}

	result := &PullResult{Changes: changes}
	if sinceEpoch == 0 {
		snap, err := c.log.LatestSnapshot(ctx, scope)
		switch {
		case err == nil:
			result.Snapshot = snap
		case errors.Is(err, storage.ErrSnapshotNotFound):
		default:
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
	}

	c.logger.Debug("Pull served",
		"device_id", session.DeviceID,
		"scope", scope.Key(),
		"since_epoch", sinceEpoch,
		"count", len(changes),
		"snapshot", result.Snapshot != nil,
	)
	return result, nil
}

// Push проверяет пакет, назначает каждой записи следующую эпоху, ставит
// серверное время создания и атомарно дописывает пакет. При ошибке
// авторизации или проверки эпохи не выдаются. Эпохи, потраченные на
// неудачную запись, повторно не выдаются.
func (c *Coordinator) Push(ctx context.Context, token, workspaceID string, changes []*models.ChangeRecord) (*PushResult, error) {
	session, err := c.Authorize(token, workspaceID)
	if err != nil {
		return nil, err
	}

	records := make([]*models.ChangeRecord, 0, len(changes))
	for i, in := range changes {
		if in == nil {
			return nil, fmt.Errorf("%w: record %d is null", ErrInvalidChange, i)
		}
		rec := *in
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidChange, i, err)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.DeviceID == "" {
			rec.DeviceID = session.DeviceID
		}
		records = append(records, &rec)
	}

	if len(records) == 0 {
		epoch := c.LastEpoch()
		return &PushResult{
			Ack:       models.EpochRange{MinEpoch: epoch, MaxEpoch: epoch},
			Conflicts: []string{},
		}, nil
	}

	ack, err := c.appendBatch(ctx, records)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Push accepted",
		"workspace_id", workspaceID,
		"device_id", session.DeviceID,
		"count", len(records),
		"min_epoch", ack.MinEpoch,
		"max_epoch", ack.MaxEpoch,
	)

	if c.publisher != nil {
		c.publisher.Publish(hub.Event{
			Type:         hub.EventChange,
			WorkspaceID:  workspaceID,
			OriginDevice: session.DeviceID,
			Change: &hub.ChangeNotice{
				Scopes: scopesOf(records),
				Ack:    ack,
				Count:  len(records),
			},
		})
	}

	return &PushResult{Ack: ack, Conflicts: []string{}}, nil
}

func (c *Coordinator) appendBatch(ctx context.Context, records []*models.ChangeRecord) (models.EpochRange, error) {
	c.epochMu.Lock()
	defer c.epochMu.Unlock()

	now := c.now()
	first := c.epoch + 1
	for i, rec := range records {
		rec.ServerEpoch = first + int64(i)
		rec.CreatedAt = now
	}
	last := first + int64(len(records)) - 1
	c.epoch = last

	if err := c.log.AppendChanges(ctx, records); err != nil {
		c.logger.Error("Failed to append changes",
			"error", err,
			"min_epoch", first,
			"max_epoch", last,
		)
		return models.EpochRange{}, fmt.Errorf("failed to append changes: %w", err)
	}
	return models.EpochRange{MinEpoch: first, MaxEpoch: last}, nil
}

// SaveSnapshot сохраняет сжатый полный снимок scope. Версия не может
// превышать текущую эпоху. Возвращает сохраненную версию.
func (c *Coordinator) SaveSnapshot(ctx context.Context, token, workspaceID string, snap *models.Snapshot) (int64, error) {
	session, err := c.Authorize(token, workspaceID)
	if err != nil {
		return 0, err
	}
	if snap == nil || !snap.ScopeType.Valid() || snap.ScopeID == "" || len(snap.PayloadCompressed) == 0 {
		return 0, fmt.Errorf("%w: incomplete snapshot", ErrInvalidChange)
	}
	current := c.LastEpoch()
	if snap.Version < 0 || snap.Version > current {
		return 0, fmt.Errorf("%w: snapshot version %d outside [0, %d]", ErrInvalidChange, snap.Version, current)
	}

	stored := *snap
	stored.CreatedAt = c.now()
	if err := c.log.SaveSnapshot(ctx, &stored); err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	c.logger.Info("Snapshot saved",
		"device_id", session.DeviceID,
		"scope", models.Scope{Type: stored.ScopeType, ID: stored.ScopeID}.Key(),
		"version", stored.Version,
		"bytes", len(stored.PayloadCompressed),
	)
	return stored.Version, nil
}

// Run удаляет истекшие сессии каждые interval до отмены ctx
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.SweepExpired(c.now()); n > 0 {
				c.logger.Debug("Expired sessions swept", "count", n)
			}
		}
	}
}

func scopesOf(records []*models.ChangeRecord) []models.Scope {
	seen := make(map[string]struct{}, len(records))
	var scopes []models.Scope
	for _, rec := range records {
		scope := rec.Scope()
		if _, ok := seen[scope.Key()]; ok {
			continue
		}
		seen[scope.Key()] = struct{}{}
		scopes = append(scopes, scope)
	}
	return scopes
}
