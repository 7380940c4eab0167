package hub

import (
	"sort"
	"sync"
	"time"

	"github.com/iudanet/docsync/internal/models"
)

// PresenceTTL сколько сигнал присутствия виден без обновления
const PresenceTTL = 30 * time.Second

type presenceKey struct {
	deviceID string
	kind     models.PresenceType
}

// Presence хранит последний сигнал каждого типа для устройства и workspace
type Presence struct {
	now  func() time.Time
	byWS map[string]map[presenceKey]models.PresenceEvent
	ttl  time.Duration
	mu   sync.Mutex
}

// NewPresence создает реестр; при nil now используется time.Now
func NewPresence(ttl time.Duration, now func() time.Time) *Presence {
	if ttl <= 0 {
		ttl = PresenceTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Presence{
		now:  now,
		ttl:  ttl,
		byWS: make(map[string]map[presenceKey]models.PresenceEvent),
	}
}

// Update записывает ev, заменяя прежний сигнал устройства того же типа
func (p *Presence) Update(ev models.PresenceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.At.IsZero() {
		ev.At = p.now()
	}
	set := p.byWS[ev.WorkspaceID]
	if set == nil {
		set = make(map[presenceKey]models.PresenceEvent)
		p.byWS[ev.WorkspaceID] = set
	}
	set[presenceKey{deviceID: ev.DeviceID, kind: ev.Type}] = ev
}

// Remove удаляет все сигналы устройства, например при отключении
func (p *Presence) Remove(workspaceID, deviceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k := range p.byWS[workspaceID] {
		if k.deviceID == deviceID {
			delete(p.byWS[workspaceID], k)
		}
	}
}

// List возвращает живые сигналы по id устройства, затем по типу, удаляя истекшие
func (p *Presence) List(workspaceID string) []models.PresenceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	set := p.byWS[workspaceID]
	out := make([]models.PresenceEvent, 0, len(set))
	for k, ev := range set {
		if now.Sub(ev.At) > p.ttl {
			delete(set, k)
			continue
		}
		out = append(out, ev)
	}
	if len(set) == 0 {
		delete(p.byWS, workspaceID)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DeviceID != out[j].DeviceID {
			return out[i].DeviceID < out[j].DeviceID
		}
		return out[i].Type < out[j].Type
	})
	return out
}
