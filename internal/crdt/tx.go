package crdt

import "fmt"

// Tx записывает локальные правки внутри Replica.Change. Правки видны
// последующим чтениям в той же транзакции.
type Tx struct {
	r     *Replica
	ops   []Op
	start uint64
}

// Change выполняет fn как одну локальную транзакцию и возвращает изменение
// или nil, если правок не было. При ошибке fn реплика остается нетронутой.
func (r *Replica) Change(message string, fn func(*Tx) error) (*Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := r.clock.GetTimestamp()
	tx := &Tx{r: r}
	if err := fn(tx); err != nil {
		r.rollback(saved, len(tx.ops) > 0)
		return nil, err
	}
	if len(tx.ops) == 0 {
		return nil, nil
	}

	actor := r.clock.GetActor()
	c := &Change{
		Actor:   actor,
		Seq:     r.seqs[actor] + 1,
		StartOp: tx.start,
		Time:    r.now().UnixMilli(),
		Message: message,
		Deps:    r.headsLocked(),
		Ops:     tx.ops,
	}
	if err := c.seal(); err != nil {
		r.rollback(saved, true)
		return nil, err
	}
	r.record(c)
	return c, nil
}

// rollback перестраивает дерево из истории, отбрасывая незафиксированные операции
func (r *Replica) rollback(counter uint64, dirty bool) {
	if dirty {
		r.objects = map[OpID]*object{rootID: newObject(KindMap, rootID, "", rootID)}
		for _, c := range r.history {
			for i, op := range c.Ops {
				r.applyOp(c.opID(i), op)
			}
		}
	}
	r.clock.SetTimestamp(counter)
}

func (tx *Tx) emit(op Op) OpID {
	id := tx.r.clock.Tick()
	if len(tx.ops) == 0 {
		tx.start = id.Counter
	}
	tx.ops = append(tx.ops, op)
	tx.r.applyOp(id, op)
	return id
}

func (tx *Tx) put(obj OpID, key string, elem OpID, insert bool, pred []OpID, v Value) OpID {
	id := tx.emit(Op{
		Action: ActionPut,
		Obj:    obj,
		Key:    key,
		Elem:   elem,
		Insert: insert,
		Value:  scalarOf(v),
		Pred:   pred,
	})
	switch t := v.(type) {
	case Map:
		for _, k := range t.SortedKeys() {
			tx.put(id, k, rootID, false, nil, t[k])
		}
	case List:
		prev := rootID
		for _, item := range t {
			prev = tx.put(id, "", prev, true, nil, item)
		}
	}
	return id
}

// Get читает значение по пути с учетом более ранних правок транзакции
func (tx *Tx) Get(path []string) (Value, bool) {
	_, reg, err := tx.r.resolveField(path)
	if err != nil {
		return nil, false
	}
	e, ok := reg.winner()
	if !ok {
		return nil, false
	}
	return tx.r.entryValue(e), true
}

// Set присваивает v по пути. Сегменты пути это ключи map или индексы, если
// контейнер список. Запись по индексу списка заменяет элемент.
func (tx *Tx) Set(path []string, v Value) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if err := checkValue(v); err != nil {
		return err
	}
	objID, obj, err := tx.r.resolveObject(path[:len(path)-1])
	if err != nil {
		return err
	}
	last := path[len(path)-1]
	if obj.kind == KindList {
		el, err := elemAt(obj, last)
		if err != nil {
			return err
		}
		tx.put(objID, "", el, false, obj.elems[el].ids(), v)
		return nil
	}
	tx.put(objID, last, rootID, false, obj.fields[last].ids(), v)
	return nil
}

// Delete удаляет ключ или элемент списка по пути. Удаление отсутствующего
// ключа ничего не делает.
func (tx *Tx) Delete(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	objID, obj, err := tx.r.resolveObject(path[:len(path)-1])
	if err != nil {
		return err
	}
	last := path[len(path)-1]
	if obj.kind == KindList {
		el, err := elemAt(obj, last)
		if err != nil {
			return err
		}
		tx.emit(Op{Action: ActionDelete, Obj: objID, Elem: el, Pred: obj.elems[el].ids()})
		return nil
	}
	reg := obj.fields[last]
	if reg == nil || len(reg.entries) == 0 {
		return nil
	}
	tx.emit(Op{Action: ActionDelete, Obj: objID, Key: last, Pred: reg.ids()})
	return nil
}

// Insert вставляет v в список по индексу, сдвигая последующие элементы
func (tx *Tx) Insert(path []string, index int, v Value) error {
	if err := checkValue(v); err != nil {
		return err
	}
	objID, obj, err := tx.r.resolveObject(path)
	if err != nil {
		return err
	}
	if obj.kind != KindList {
		return fmt.Errorf("%w: %v is not a list", ErrTypeMismatch, path)
	}
	ids := obj.visibleElems()
	if index < 0 || index > len(ids) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	ref := rootID
	if index > 0 {
		ref = ids[index-1]
	}
	tx.put(objID, "", ref, true, nil, v)
	return nil
}

// Append добавляет v в конец списка
func (tx *Tx) Append(path []string, v Value) error {
	_, obj, err := tx.r.resolveObject(path)
	if err != nil {
		return err
	}
	if obj.kind != KindList {
		return fmt.Errorf("%w: %v is not a list", ErrTypeMismatch, path)
	}
	return tx.Insert(path, len(obj.visibleElems()), v)
}

// RemoveAt удаляет элемент списка по индексу
func (tx *Tx) RemoveAt(path []string, index int) error {
	p := append(append([]string(nil), path...), fmt.Sprint(index))
	return tx.Delete(p)
}
