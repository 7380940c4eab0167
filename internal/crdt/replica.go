// Package crdt движок реплицируемого документа. Replica хранит полную
// причинную историю документа одного scope и строит из нее JSON-подобное
// значение. Слияние есть объединение множеств примененных изменений, поэтому
// реплики, применившие одни и те же изменения в любом порядке и с повторами,
// приходят к одному состоянию.
package crdt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Replica копия документа scope у одного актора. Безопасна для конкурентного использования.
type Replica struct {
	objects map[OpID]*object
	index   map[Hash]int
	heads   map[Hash]struct{}
	seqs    map[string]uint64
	pending map[Hash]*Change
	clock   *LamportClock
	now     func() time.Time
	scopeID string
	history []*Change
	mu      sync.RWMutex
}

type options struct {
	now   func() time.Time
	actor string
}

// Option настраивает Replica
type Option func(*options)

// WithActor задает идентичность актора для локальных правок
func WithActor(actor string) Option {
	return func(o *options) {
		o.actor = actor
	}
}

// WithClock задает часы для справочной метки времени изменения
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newReplica(scopeID string, o options) *Replica {
	if o.actor == "" {
		o.actor = NewActorID()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return &Replica{
		scopeID: scopeID,
		clock:   NewLamportClockWithActor(o.actor),
		now:     o.now,
		objects: map[OpID]*object{rootID: newObject(KindMap, rootID, "", rootID)},
		index:   make(map[Hash]int),
		heads:   make(map[Hash]struct{}),
		seqs:    make(map[string]uint64),
		pending: make(map[Hash]*Change),
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New создает реплику для scopeID. Непустой initial записывается первым
// изменением реплики; nil или Null дают пустой документ.
func New(scopeID string, initial Value, opts ...Option) (*Replica, error) {
	r := newReplica(scopeID, applyOptions(opts))

	switch v := initial.(type) {
	case nil, Null:
		return r, nil
	case Map:
		if len(v) == 0 {
			return r, nil
		}
		_, err := r.Change("init", func(tx *Tx) error {
			for _, k := range v.SortedKeys() {
				if err := tx.Set([]string{k}, v[k]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: document root must be a map, got %s", ErrTypeMismatch, initial.Kind())
	}
}

// ScopeID возвращает scope реплики
func (r *Replica) ScopeID() string {
	return r.scopeID
}

// Actor возвращает идентичность для локальных правок
func (r *Replica) Actor() string {
	return r.clock.GetActor()
}

// Heads возвращает хэши изменений, от которых не зависит ни одно примененное
func (r *Replica) Heads() []Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.headsLocked()
}

func (r *Replica) headsLocked() []Hash {
	out := make([]Hash, 0, len(r.heads))
	for h := range r.heads {
		out = append(out, h)
	}
	sortHashes(out)
	return out
}

// Clock возвращает векторные часы: максимальный примененный seq каждого актора
func (r *Replica) Clock() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.seqs))
	for a, s := range r.seqs {
		out[a] = s
	}
	return out
}

// Changes возвращает историю в порядке применения
func (r *Replica) Changes() []*Change {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Change(nil), r.history...)
}

// Has сообщает, входит ли изменение в примененную историю
func (r *Replica) Has(h Hash) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[h]
	return ok
}

// PendingCount число полученных изменений, ждущих недостающих зависимостей
func (r *Replica) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// Value строит текущий документ
func (r *Replica) Value() Map {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.materialize(rootID).(Map)
}

// JSON детерминированная JSON проекция документа (ключи отсортированы)
func (r *Replica) JSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// Get возвращает значение по пути
func (r *Replica) Get(path []string) (Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, reg, err := r.resolveField(path)
	if err != nil || obj == nil {
		return nil, false
	}
	e, ok := reg.winner()
	if !ok {
		return nil, false
	}
	return r.entryValue(e), true
}

// Conflicts возвращает все конкурентные значения по пути, победитель первым.
// Для поля без конкурентных записей это одно значение.
func (r *Replica) Conflicts(path []string) []Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, reg, err := r.resolveField(path)
	if err != nil {
		return nil
	}
	var out []Value
	for _, e := range reg.visible() {
		out = append(out, r.entryValue(e))
	}
	return out
}

func (r *Replica) entryValue(e entry) Value {
	if e.value.Kind.IsContainer() {
		return r.materialize(e.id)
	}
	return e.value.value()
}

func (r *Replica) materialize(id OpID) Value {
	obj := r.objects[id]
	if obj == nil {
		return Null{}
	}
	if obj.kind == KindList {
		ids := obj.visibleElems()
		out := make(List, 0, len(ids))
		for _, el := range ids {
			e, _ := obj.elems[el].winner()
			out = append(out, r.entryValue(e))
		}
		return out
	}
	out := make(Map, len(obj.fields))
	for k, reg := range obj.fields {
		if e, ok := reg.winner(); ok {
			out[k] = r.entryValue(e)
		}
	}
	return out
}

// resolveObject проходит путь от корня и возвращает названный им контейнер
func (r *Replica) resolveObject(path []string) (OpID, *object, error) {
	id := rootID
	obj := r.objects[rootID]
	for i, seg := range path {
		reg, err := r.childRegister(obj, seg)
		if err != nil {
			return rootID, nil, fmt.Errorf("%w at %v", err, path[:i+1])
		}
		e, ok := reg.winner()
		if !ok {
			return rootID, nil, fmt.Errorf("%w: %v does not exist", ErrInvalidPath, path[:i+1])
		}
		if !e.value.Kind.IsContainer() {
			return rootID, nil, fmt.Errorf("%w: %v is a %s", ErrTypeMismatch, path[:i+1], e.value.Kind)
		}
		id = e.id
		obj = r.objects[id]
	}
	return id, obj, nil
}

// resolveField возвращает регистр по непустому пути
func (r *Replica) resolveField(path []string) (*object, *register, error) {
	if len(path) == 0 {
		return nil, nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	_, obj, err := r.resolveObject(path[:len(path)-1])
	if err != nil {
		return nil, nil, err
	}
	reg, err := r.childRegister(obj, path[len(path)-1])
	if err != nil {
		return nil, nil, err
	}
	return obj, reg, nil
}

func (r *Replica) childRegister(obj *object, seg string) (*register, error) {
	if obj.kind == KindList {
		el, err := elemAt(obj, seg)
		if err != nil {
			return nil, err
		}
		return obj.elems[el], nil
	}
	reg := obj.fields[seg]
	if reg == nil {
		return nil, fmt.Errorf("%w: key %q not found", ErrInvalidPath, seg)
	}
	return reg, nil
}

func elemAt(obj *object, seg string) (OpID, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil {
		return rootID, fmt.Errorf("%w: %q is not a list index", ErrInvalidPath, seg)
	}
	ids := obj.visibleElems()
	if idx < 0 || idx >= len(ids) {
		return rootID, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	return ids[idx], nil
}

// location адрес регистра для отчета о конфликтах
type location struct {
	key  string
	obj  OpID
	elem OpID
}

// Conflict поле с конкурентными значениями после слияния
type Conflict struct {
	Path   []string
	Values []Value
}

// ApplyResult итог одного вызова ApplyChanges
type ApplyResult struct {
	Conflicts  []Conflict
	Applied    int
	Duplicates int
	Pending    int
}

// ApplyChanges сливает в реплику изменения любого происхождения и порядка.
// Уже примененные изменения пропускаются. Изменения с недостающими
// зависимостями буферизуются до их прихода. Некорректные изменения
// отбрасываются и попадают в возвращаемую ошибку, остаток пакета применяется.
func (r *Replica) ApplyChanges(changes []*Change) (ApplyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res ApplyResult
	for _, c := range changes {
		if c == nil {
			continue
		}
		if _, ok := r.index[c.hash]; ok {
			res.Duplicates++
			continue
		}
		if _, ok := r.pending[c.hash]; ok {
			res.Duplicates++
			continue
		}
		r.pending[c.hash] = c
	}

	var errs []error
	touched := make(map[location]struct{})
	for {
		ready := r.readyLocked(&errs)
		if len(ready) == 0 {
			break
		}
		for _, c := range ready {
			delete(r.pending, c.hash)
			if err := r.validateLocked(c); err != nil {
				errs = append(errs, fmt.Errorf("change %s: %w", c.hash, err))
				continue
			}
			for i, op := range c.Ops {
				loc := r.applyOp(c.opID(i), op)
				touched[loc] = struct{}{}
			}
			r.record(c)
			res.Applied++
		}
	}

	res.Pending = len(r.pending)
	res.Conflicts = r.conflictsAt(touched)
	return res, errors.Join(errs...)
}

// readyLocked возвращает ожидающие изменения, чьи зависимости применены и
// которые следующие по seq у своего актора. Порядок детерминирован.
func (r *Replica) readyLocked(errs *[]error) []*Change {
	var ready []*Change
	for h, c := range r.pending {
		if c.Seq <= r.seqs[c.Actor] {
			delete(r.pending, h)
			*errs = append(*errs, fmt.Errorf("change %s: %w (actor %s seq %d)", h, ErrSeqReused, c.Actor, c.Seq))
			continue
		}
		if c.Seq != r.seqs[c.Actor]+1 {
			continue
		}
		ok := true
		for _, d := range c.Deps {
			if _, applied := r.index[d]; !applied {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, c)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Actor < ready[j].Actor
	})
	return ready
}

// validateLocked проверяет, что каждая операция адресует существующие объект
// и элемент: плохое изменение отклоняется до того, как тронет состояние.
func (r *Replica) validateLocked(c *Change) error {
	created := make(map[OpID]Kind)
	newElems := make(map[OpID]OpID)
	for i, op := range c.Ops {
		id := c.opID(i)
		kind, ok := created[op.Obj]
		obj := r.objects[op.Obj]
		if !ok {
			if obj == nil {
				return fmt.Errorf("%w: op %d targets unknown object %s", ErrMalformedChange, i, op.Obj)
			}
			kind = obj.kind
		}
		switch kind {
		case KindMap:
			if op.Insert || !op.Elem.IsZero() {
				return fmt.Errorf("%w: op %d addresses a map by element", ErrMalformedChange, i)
			}
		case KindList:
			if op.Key != "" {
				return fmt.Errorf("%w: op %d addresses a list by key", ErrMalformedChange, i)
			}
			exists := func(el OpID) bool {
				if owner, ok := newElems[el]; ok && owner == op.Obj {
					return true
				}
				return obj != nil && obj.elems[el] != nil
			}
			if op.Insert {
				if !op.Elem.IsZero() && !exists(op.Elem) {
					return fmt.Errorf("%w: op %d inserts after unknown element", ErrMalformedChange, i)
				}
				newElems[id] = op.Obj
			} else if !exists(op.Elem) {
				return fmt.Errorf("%w: op %d targets unknown element", ErrMalformedChange, i)
			}
		}
		if op.Action == ActionPut && op.Value.Kind.IsContainer() {
			created[id] = op.Value.Kind
		}
	}
	return nil
}

// applyOp меняет дерево объектов. Операция должна быть проверена.
func (r *Replica) applyOp(id OpID, op Op) location {
	obj := r.objects[op.Obj]
	loc := location{obj: op.Obj, key: op.Key, elem: op.Elem}

	var reg *register
	switch {
	case op.Insert:
		obj.insertAfter(op.Elem, id)
		reg = &register{}
		obj.elems[id] = reg
		loc.elem = id
	case obj.kind == KindList:
		reg = obj.elems[op.Elem]
	default:
		reg = obj.fields[op.Key]
		if reg == nil {
			reg = &register{}
			obj.fields[op.Key] = reg
		}
	}

	if op.Action == ActionDelete {
		reg.remove(op.Pred)
	} else {
		reg.put(id, op.Value, op.Pred)
		if op.Value.Kind.IsContainer() {
			r.objects[id] = newObject(op.Value.Kind, op.Obj, op.Key, loc.elem)
		}
	}
	r.clock.Update(id.Counter)
	return loc
}

// record добавляет изменение в историю и сдвигает heads и векторные часы
func (r *Replica) record(c *Change) {
	for _, d := range c.Deps {
		delete(r.heads, d)
	}
	r.heads[c.hash] = struct{}{}
	r.seqs[c.Actor] = c.Seq
	r.index[c.hash] = len(r.history)
	r.history = append(r.history, c)
	r.clock.Update(c.MaxOp())
}

func (r *Replica) conflictsAt(touched map[location]struct{}) []Conflict {
	var out []Conflict
	for loc := range touched {
		obj := r.objects[loc.obj]
		if obj == nil {
			continue
		}
		var reg *register
		if obj.kind == KindList {
			reg = obj.elems[loc.elem]
		} else {
			reg = obj.fields[loc.key]
		}
		vis := reg.visible()
		if len(vis) < 2 {
			continue
		}
		path, ok := r.pathTo(loc)
		if !ok {
			continue
		}
		c := Conflict{Path: path}
		for _, e := range vis {
			c.Values = append(c.Values, r.entryValue(e))
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return fmt.Sprint(out[i].Path) < fmt.Sprint(out[j].Path)
	})
	return out
}

// pathTo возвращает путь регистра, если каждый контейнер над ним является
// победившим значением своего регистра
func (r *Replica) pathTo(loc location) ([]string, bool) {
	var rev []string
	objID, key, elem := loc.obj, loc.key, loc.elem
	for {
		obj := r.objects[objID]
		if obj == nil {
			return nil, false
		}
		if obj.kind == KindList {
			idx := -1
			for i, el := range obj.visibleElems() {
				if el == elem {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, false
			}
			rev = append(rev, strconv.Itoa(idx))
		} else {
			rev = append(rev, key)
		}
		if objID.IsZero() {
			break
		}
		parent := r.objects[obj.parent]
		if parent == nil {
			return nil, false
		}
		var reg *register
		if parent.kind == KindList {
			reg = parent.elems[obj.elem]
		} else {
			reg = parent.fields[obj.key]
		}
		if w, ok := reg.winner(); !ok || w.id != objID {
			return nil, false
		}
		objID, key, elem = obj.parent, obj.key, obj.elem
	}
	path := make([]string, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path, true
}

// Diff возвращает изменения из истории newer, которых нет в older,
// в порядке применения в newer (причинном порядке)
func Diff(older, newer *Replica) []*Change {
	if older == newer {
		return nil
	}
	have := make(map[Hash]struct{})
	older.mu.RLock()
	for h := range older.index {
		have[h] = struct{}{}
	}
	older.mu.RUnlock()

	newer.mu.RLock()
	defer newer.mu.RUnlock()
	var out []*Change
	for _, c := range newer.history {
		if _, ok := have[c.hash]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Fork клонирует реплику под новым актором; пустой actor заменяется случайным
func (r *Replica) Fork(actor string) (*Replica, error) {
	if actor == "" {
		actor = NewActorID()
	}
	if actor == r.Actor() {
		return nil, ErrActorInUse
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	f := newReplica(r.scopeID, options{actor: actor, now: r.now})
	for _, c := range r.history {
		f.replay(c)
	}
	for h, c := range r.pending {
		f.pending[h] = c
	}
	return f, nil
}

// replay применяет изменение, уже проверенное и причинно готовое
func (r *Replica) replay(c *Change) {
	for i, op := range c.Ops {
		r.applyOp(c.opID(i), op)
	}
	r.record(c)
}
