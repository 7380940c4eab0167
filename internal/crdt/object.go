package crdt

import "sort"

// entry живое значение-кандидат регистра. Контейнерной записи принадлежит
// вложенный объект с тем же id.
type entry struct {
	value Scalar
	id    OpID
}

// register хранит конкурентные, еще не перезаписанные значения одного ключа
// map или элемента списка.
type register struct {
	entries []entry
}

// put добавляет запись, убрав перезаписанные ею
func (r *register) put(id OpID, v Scalar, pred []OpID) {
	r.remove(pred)
	r.entries = append(r.entries, entry{id: id, value: v})
}

func (r *register) remove(pred []OpID) {
	if len(pred) == 0 {
		return
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		overwritten := false
		for _, p := range pred {
			if e.id == p {
				overwritten = true
				break
			}
		}
		if !overwritten {
			kept = append(kept, e)
		}
	}
	r.entries = kept
}

// visible возвращает живые записи, победитель (наибольший id) первым
func (r *register) visible() []entry {
	if r == nil || len(r.entries) == 0 {
		return nil
	}
	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool {
		return out[j].id.Less(out[i].id)
	})
	return out
}

func (r *register) winner() (entry, bool) {
	if r == nil || len(r.entries) == 0 {
		return entry{}, false
	}
	best := r.entries[0]
	for _, e := range r.entries[1:] {
		if best.id.Less(e.id) {
			best = e
		}
	}
	return best, true
}

func (r *register) ids() []OpID {
	if r == nil {
		return nil
	}
	out := make([]OpID, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.id
	}
	return out
}

func (r *register) clone() *register {
	return &register{entries: append([]entry(nil), r.entries...)}
}

// object узел дерева документа: map или список
type object struct {
	fields map[string]*register
	elems  map[OpID]*register
	// after: опорный элемент (rootID голова списка) -> элементы, вставленные
	// сразу после него, наибольший id первым
	after  map[OpID][]OpID
	key    string
	parent OpID
	elem   OpID
	kind   Kind
}

func newObject(kind Kind, parent OpID, key string, elem OpID) *object {
	o := &object{kind: kind, parent: parent, key: key, elem: elem}
	if kind == KindList {
		o.elems = make(map[OpID]*register)
		o.after = make(map[OpID][]OpID)
	} else {
		o.fields = make(map[string]*register)
	}
	return o
}

// insertAfter встраивает новый элемент в дерево последовательности
func (o *object) insertAfter(ref, id OpID) {
	siblings := o.after[ref]
	i := sort.Search(len(siblings), func(i int) bool {
		return siblings[i].Less(id)
	})
	siblings = append(siblings, OpID{})
	copy(siblings[i+1:], siblings[i:])
	siblings[i] = id
	o.after[ref] = siblings
}

// order возвращает id всех элементов (и удаленных) в порядке документа:
// прямой обход дерева вставок, новейший сосед первым.
func (o *object) order() []OpID {
	out := make([]OpID, 0, len(o.elems))
	var stack []OpID
	push := func(ref OpID) {
		kids := o.after[ref]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	push(rootID)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, id)
		push(id)
	}
	return out
}

// visibleElems возвращает id элементов, у которых еще есть значение
func (o *object) visibleElems() []OpID {
	all := o.order()
	out := all[:0]
	for _, id := range all {
		if reg := o.elems[id]; reg != nil && len(reg.entries) > 0 {
			out = append(out, id)
		}
	}
	return out
}

func (o *object) clone() *object {
	c := &object{kind: o.kind, parent: o.parent, key: o.key, elem: o.elem}
	if o.fields != nil {
		c.fields = make(map[string]*register, len(o.fields))
		for k, r := range o.fields {
			c.fields[k] = r.clone()
		}
	}
	if o.elems != nil {
		c.elems = make(map[OpID]*register, len(o.elems))
		for k, r := range o.elems {
			c.elems[k] = r.clone()
		}
		c.after = make(map[OpID][]OpID, len(o.after))
		for k, ids := range o.after {
			c.after[k] = append([]OpID(nil), ids...)
		}
	}
	return c
}
