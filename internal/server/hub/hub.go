// Package hub рассылает уведомления синхронизации подключенным устройствам.
// У каждого подписчика ограниченная очередь; при переполнении событие для
// него отбрасывается, и медленный потребитель не тормозит издателей.
package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/docsync/internal/models"
)

// EventType тип события hub
type EventType string

const (
	EventChange   EventType = "change"
	EventPresence EventType = "presence"
)

// ChangeNotice сообщает о принятом push
type ChangeNotice struct {
	Scopes []models.Scope    `json:"scopes"`
	Ack    models.EpochRange `json:"ack"`
	Count  int               `json:"count"`
}

// Event одно широковещательное сообщение
type Event struct {
	At           time.Time             `json:"at"`
	Change       *ChangeNotice         `json:"change,omitempty"`
	Presence     *models.PresenceEvent `json:"presence,omitempty"`
	Type         EventType             `json:"type"`
	WorkspaceID  string                `json:"workspaceId"`
	OriginDevice string                `json:"originDeviceId,omitempty"`
}

// Subscription получает события одного workspace
type Subscription struct {
	hub         *Hub
	events      chan Event
	WorkspaceID string
	DeviceID    string
	dropped     atomic.Int64
	closeOnce   sync.Once
}

// Events возвращает очередь подписчика. Она закрывается при завершении
// подписки или остановке hub.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Dropped число событий, отброшенных из-за полной очереди
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close отменяет подписку. Повторный вызов безопасен.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}

// Hub доставляет события подписчикам. Subscribe и Publish работают,
// только пока запущен Run.
type Hub struct {
	logger     *slog.Logger
	subs       map[string]map[*Subscription]struct{}
	register   chan *Subscription
	unregister chan *Subscription
	publish    chan Event
	done       chan struct{}
	bufferSize int
	dropped    atomic.Int64
}

// New создает hub, подписчики которого буферизуют до bufferSize событий
func New(logger *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Hub{
		logger:     logger,
		bufferSize: bufferSize,
		subs:       make(map[string]map[*Subscription]struct{}),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		publish:    make(chan Event, 1024),
		done:       make(chan struct{}),
	}
}

// Run владеет таблицей подписчиков до отмены ctx, затем закрывает все
// очереди подписчиков.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, set := range h.subs {
			for s := range set {
				close(s.events)
			}
		}
		h.subs = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			set := h.subs[s.WorkspaceID]
			if set == nil {
				set = make(map[*Subscription]struct{})
				h.subs[s.WorkspaceID] = set
			}
			set[s] = struct{}{}
			h.logger.Debug("hub subscriber added", "workspace_id", s.WorkspaceID, "device_id", s.DeviceID)
		case s := <-h.unregister:
			set := h.subs[s.WorkspaceID]
			if _, ok := set[s]; ok {
				delete(set, s)
				close(s.events)
				if len(set) == 0 {
					delete(h.subs, s.WorkspaceID)
				}
			}
		case ev := <-h.publish:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	for s := range h.subs[ev.WorkspaceID] {
		if ev.OriginDevice != "" && s.DeviceID == ev.OriginDevice {
			continue
		}
		select {
		case s.events <- ev:
		default:
			s.dropped.Add(1)
			h.logger.Warn("hub subscriber queue full, event dropped",
				"workspace_id", ev.WorkspaceID,
				"device_id", s.DeviceID,
				"type", ev.Type,
			)
		}
	}
}

// Subscribe регистрирует подписчика workspaceID. Подписка получает события,
// опубликованные после возврата Subscribe. Для остановленного hub вернет nil.
func (h *Hub) Subscribe(workspaceID, deviceID string) *Subscription {
	s := &Subscription{
		hub:         h,
		WorkspaceID: workspaceID,
		DeviceID:    deviceID,
		events:      make(chan Event, h.bufferSize),
	}
	select {
	case h.register <- s:
		return s
	case <-h.done:
		return nil
	}
}

// Publish ставит событие в очередь без блокировки. Если hub остановлен или
// входная очередь полна, событие отбрасывается и учитывается.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case <-h.done:
		h.dropped.Add(1)
		return
	default:
	}
	select {
	case h.publish <- ev:
	default:
		h.dropped.Add(1)
		h.logger.Warn("hub inbound queue full, event dropped", "workspace_id", ev.WorkspaceID, "type", ev.Type)
	}
}

// Dropped число событий, отброшенных самим hub
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
