package api

import (
	"time"

	"github.com/iudanet/docsync/internal/models"
)

// ProtocolVersion версия протокола синхронизации
const ProtocolVersion = "1.0.0"

// HandshakeRequest запрос на открытие сессии
type HandshakeRequest struct {
	WorkspaceID string `json:"workspaceId" validate:"required,max=128"`
	DeviceID    string `json:"deviceId,omitempty" validate:"omitempty,max=128"` // генерируется сервером, если пусто
}

// HandshakeResponse ответ на handshake
type HandshakeResponse struct {
	ServerTime      time.Time `json:"serverTime"`
	ProtocolVersion string    `json:"protocolVersion"`
	DeviceID        string    `json:"deviceId"`
	SessionToken    string    `json:"sessionToken"`
	LastEpoch       int64     `json:"lastEpoch"` // эпоха, с которой клиенту продолжать pull
}

// PullRequest запрос изменений scope начиная с эпохи
type PullRequest struct {
	SessionToken string           `json:"sessionToken,omitempty"` // может прийти в заголовке Authorization
	WorkspaceID  string           `json:"workspaceId" validate:"required"`
	ScopeType    models.ScopeType `json:"scopeType" validate:"required,oneof=workspace project collection request environment variable secret"`
	ScopeID      string           `json:"scopeId" validate:"required"`
	SinceEpoch   int64            `json:"sinceEpoch" validate:"gte=0"`
}

// PullResponse изменения scope в порядке эпох
type PullResponse struct {
	Snapshot *models.Snapshot       `json:"snapshot"` // только для холодного старта (sinceEpoch == 0)
	Changes  []*models.ChangeRecord `json:"changes"`
}

// PushRequest пакет изменений от клиента
type PushRequest struct {
	SessionToken string                 `json:"sessionToken,omitempty"`
	WorkspaceID  string                 `json:"workspaceId" validate:"required"`
	Changes      []*models.ChangeRecord `json:"changes" validate:"max=10000"`
}

// PushResponse подтверждение принятых изменений
type PushResponse struct {
	Conflicts []string          `json:"conflicts"` // зарезервировано, всегда пусто
	Ack       models.EpochRange `json:"ack"`
}

// SnapshotRequest загрузка сжатого снимка scope
type SnapshotRequest struct {
	Snapshot     *models.Snapshot `json:"snapshot" validate:"required"`
	SessionToken string           `json:"sessionToken,omitempty"`
	WorkspaceID  string           `json:"workspaceId" validate:"required"`
}

// SnapshotResponse версия сохраненного снимка
type SnapshotResponse struct {
	Version int64 `json:"version"`
}

// LogoutRequest отзыв сессии
type LogoutRequest struct {
	SessionToken string `json:"sessionToken,omitempty"`
}

// PresenceMessage кадр присутствия, отправляемый клиентом по websocket
type PresenceMessage struct {
	Payload   map[string]any      `json:"payload,omitempty"`
	Type      models.PresenceType `json:"type" validate:"required,oneof=cursor typing selection"`
	ScopeType models.ScopeType    `json:"scopeType,omitempty"`
	ScopeID   string              `json:"scopeId,omitempty"`
}
