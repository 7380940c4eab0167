package crdt

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// OpID идентификатор операции: счетчик Лэмпорта и актор, который ее создал.
// Счетчики уникальны в пределах актора, поэтому пара уникальна глобально.
type OpID struct {
	Counter uint64 `cbor:"1,keyasint,omitempty"`
	Actor   string `cbor:"2,keyasint,omitempty"`
}

// rootID нулевой OpID: корневая map и голова списка
var rootID = OpID{}

// IsZero сообщает, является ли id корнем или головой списка
func (id OpID) IsZero() bool {
	return id.Counter == 0 && id.Actor == ""
}

// Compare упорядочивает id по счетчику, затем по актору. Конкурентные записи
// в одно поле выигрывает больший id.
func (id OpID) Compare(other OpID) int {
	switch {
	case id.Counter < other.Counter:
		return -1
	case id.Counter > other.Counter:
		return 1
	}
	return strings.Compare(id.Actor, other.Actor)
}

// Less сообщает, идет ли id раньше other
func (id OpID) Less(other OpID) bool {
	return id.Compare(other) < 0
}

func (id OpID) String() string {
	if id.IsZero() {
		return "_root"
	}
	return strconv.FormatUint(id.Counter, 10) + "@" + id.Actor
}

// ParseOpID разбирает строковую форму OpID
func ParseOpID(s string) (OpID, error) {
	if s == "_root" {
		return rootID, nil
	}
	counter, actor, ok := strings.Cut(s, "@")
	if !ok || actor == "" {
		return OpID{}, fmt.Errorf("invalid op id %q", s)
	}
	n, err := strconv.ParseUint(counter, 10, 64)
	if err != nil || n == 0 {
		return OpID{}, fmt.Errorf("invalid op id %q", s)
	}
	return OpID{Counter: n, Actor: actor}, nil
}

// NewActorID возвращает новую случайную идентичность актора
func NewActorID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// LamportClock выдает id операций одного актора и помнит максимальный
// счетчик, виденный от любого актора: локальные id всегда старше всего,
// что видела реплика.
type LamportClock struct {
	actor   string
	counter uint64
	mu      sync.Mutex
}

// NewLamportClock создает часы для нового случайного актора
func NewLamportClock() *LamportClock {
	return NewLamportClockWithActor(NewActorID())
}

// NewLamportClockWithActor создает часы для заданного актора
func NewLamportClockWithActor(actor string) *LamportClock {
	return &LamportClock{actor: actor}
}

// Tick увеличивает счетчик и возвращает следующий локальный id
func (lc *LamportClock) Tick() OpID {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter++
	return OpID{Counter: lc.counter, Actor: lc.actor}
}

// Update подтягивает счетчик к удаленному, если тот впереди
func (lc *LamportClock) Update(remote uint64) uint64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if remote > lc.counter {
		lc.counter = remote
	}
	return lc.counter
}

// GetTimestamp возвращает максимальный виденный счетчик
func (lc *LamportClock) GetTimestamp() uint64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return lc.counter
}

// GetActor возвращает актора, для которого часы выдают id
func (lc *LamportClock) GetActor() string {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return lc.actor
}

// SetTimestamp перезаписывает счетчик при откате прерванной транзакции
func (lc *LamportClock) SetTimestamp(counter uint64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter = counter
}
