package models

import (
	"fmt"
	"time"
)

// ScopeType вид сущности, которую синхронизирует scope
type ScopeType string

const (
	ScopeWorkspace   ScopeType = "workspace"
	ScopeProject     ScopeType = "project"
	ScopeCollection  ScopeType = "collection"
	ScopeRequest     ScopeType = "request"
	ScopeEnvironment ScopeType = "environment"
	ScopeVariable    ScopeType = "variable"
	ScopeSecret      ScopeType = "secret"
)

// Valid сообщает, известен ли тип scope
func (t ScopeType) Valid() bool {
	switch t {
	case ScopeWorkspace, ScopeProject, ScopeCollection, ScopeRequest,
		ScopeEnvironment, ScopeVariable, ScopeSecret:
		return true
	}
	return false
}

// Scope единица синхронизации
type Scope struct {
	Type ScopeType `json:"scopeType"`
	ID   string    `json:"scopeId"`
}

// Key возвращает форму "type:id" для ключей map и хранилища
func (s Scope) Key() string {
	return string(s.Type) + ":" + s.ID
}

func (s Scope) String() string {
	return s.Key()
}

// OpType вид мутации в записи изменения
type OpType string

const (
	OpInsert OpType = "insert"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
	OpCRDT   OpType = "crdt"
)

// ChangeRecord неизменяемая сетевая единица протокола синхронизации. Payload
// для сервера непрозрачен; ServerEpoch и CreatedAt назначает координатор
// при приеме записи.
type ChangeRecord struct {
	CreatedAt       time.Time  `json:"createdAt"`
	ClientCreatedAt *time.Time `json:"clientCreatedAt,omitempty"`
	ID              string     `json:"id"`
	ScopeType       ScopeType  `json:"scopeType"`
	ScopeID         string     `json:"scopeId"`
	ActorID         string     `json:"actorId"`
	DeviceID        string     `json:"deviceId"`
	OpType          OpType     `json:"opType"`
	Payload         []byte     `json:"payload"`
	Lamport         uint64     `json:"lamport"`
	ServerEpoch     int64      `json:"serverEpoch"`
}

// Scope возвращает scope записи
func (c *ChangeRecord) Scope() Scope {
	return Scope{Type: c.ScopeType, ID: c.ScopeID}
}

// Validate проверяет поля, которые обязан заполнить клиент
func (c *ChangeRecord) Validate() error {
	if !c.ScopeType.Valid() {
		return fmt.Errorf("unknown scope type %q", c.ScopeType)
	}
	if c.ScopeID == "" {
		return fmt.Errorf("empty scope id")
	}
	if len(c.Payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	switch c.OpType {
	case OpInsert, OpUpdate, OpDelete, OpCRDT:
	case "":
		c.OpType = OpCRDT
	default:
		return fmt.Errorf("unknown op type %q", c.OpType)
	}
	return nil
}

// Snapshot сжатый полный снимок документа scope, включающий все изменения
// с ServerEpoch <= Version.
type Snapshot struct {
	CreatedAt         time.Time `json:"createdAt"`
	ScopeType         ScopeType `json:"scopeType"`
	ScopeID           string    `json:"scopeId"`
	PayloadCompressed []byte    `json:"payloadCompressed"`
	Version           int64     `json:"version"`
}

// Session дает одному устройству доступ к одному workspace до ExpiresAt
type Session struct {
	ExpiresAt   time.Time `json:"expiresAt"`
	IssuedAt    time.Time `json:"issuedAt"`
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	DeviceID    string    `json:"deviceId"`
}

// Expired сообщает, истекла ли сессия к моменту now
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// EpochRange включительный диапазон эпох, выданных push
type EpochRange struct {
	MinEpoch int64 `json:"minEpoch"`
	MaxEpoch int64 `json:"maxEpoch"`
}

// PresenceType вид эфемерного сигнала присутствия
type PresenceType string

const (
	PresenceCursor    PresenceType = "cursor"
	PresenceTyping    PresenceType = "typing"
	PresenceSelection PresenceType = "selection"
)

// Valid сообщает, известен ли тип присутствия
func (t PresenceType) Valid() bool {
	return t == PresenceCursor || t == PresenceTyping || t == PresenceSelection
}

// PresenceEvent эфемерный сигнал одного устройства, не сохраняется
type PresenceEvent struct {
	At          time.Time      `json:"at"`
	Payload     map[string]any `json:"payload,omitempty"`
	WorkspaceID string         `json:"workspaceId"`
	DeviceID    string         `json:"deviceId"`
	Type        PresenceType   `json:"type"`
	ScopeType   ScopeType      `json:"scopeType,omitempty"`
	ScopeID     string         `json:"scopeId,omitempty"`
}
