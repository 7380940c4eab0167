package crdt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind вариант, который хранит Value
type Kind uint8

const (
	KindNull Kind = iota + 1
	KindBool
	KindNumber
	KindString
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsContainer сообщает, содержат ли значения этого вида вложенные значения
func (k Kind) IsContainer() bool {
	return k == KindMap || k == KindList
}

// Value JSON-подобное значение документа. Набор реализаций закрыт:
// Null, Bool, Number, String, Map и List.
type Value interface {
	Kind() Kind
	sealed()
}

type (
	Null   struct{}
	Bool   bool
	Number float64
	String string
	Map    map[string]Value
	List   []Value
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Map) Kind() Kind    { return KindMap }
func (List) Kind() Kind   { return KindList }

func (Null) sealed()   {}
func (Bool) sealed()   {}
func (Number) sealed() {}
func (String) sealed() {}
func (Map) sealed()    {}
func (List) sealed()   {}

// MarshalJSON кодирует Null как JSON литерал null
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// SortedKeys возвращает ключи map в порядке байтов
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseJSON декодирует JSON документ в Value
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return FromAny(raw)
}

// FromAny преобразует результат encoding/json (или аналогичные литералы Go)
// в Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case int:
		return Number(t), nil
	case int64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidValue, t)
		}
		return Number(f), nil
	case map[string]any:
		m := make(Map, len(t))
		for k, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			m[k] = val
		}
		return m, nil
	case []any:
		l := make(List, 0, len(t))
		for _, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			l = append(l, val)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}

// ToAny преобразует Value в обычные значения Go (map[string]any, []any, ...)
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Number:
		return float64(t)
	case String:
		return string(t)
	case Map:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = ToAny(item)
		}
		return out
	case List:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// Equal сообщает, совпадают ли значения структурно
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case Null:
		return true
	case Bool:
		return at == b.(Bool)
	case Number:
		return at == b.(Number)
	case String:
		return at == b.(String)
	case Map:
		bt := b.(Map)
		if len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case List:
		bt := b.(List)
		if len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !Equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// checkValue отклоняет значения без детерминированного представления
func checkValue(v Value) error {
	switch t := v.(type) {
	case nil:
		return fmt.Errorf("%w: nil value", ErrInvalidValue)
	case Number:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return fmt.Errorf("%w: non-finite number", ErrInvalidValue)
		}
	case Map:
		for _, item := range t {
			if err := checkValue(item); err != nil {
				return err
			}
		}
	case List:
		for _, item := range t {
			if err := checkValue(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// Scalar сетевая форма значения одной операции. Контейнеры представлены
// только видом, их содержимое записывается отдельными операциями.
type Scalar struct {
	Str  string  `cbor:"4,keyasint,omitempty"`
	Num  float64 `cbor:"3,keyasint,omitempty"`
	Kind Kind    `cbor:"1,keyasint"`
	Bool bool    `cbor:"2,keyasint,omitempty"`
}

func scalarOf(v Value) Scalar {
	switch t := v.(type) {
	case Bool:
		return Scalar{Kind: KindBool, Bool: bool(t)}
	case Number:
		n := float64(t)
		if n == 0 {
			// -0 и +0 кодируются одинаково
			n = 0
		}
		return Scalar{Kind: KindNumber, Num: n}
	case String:
		return Scalar{Kind: KindString, Str: string(t)}
	case Map:
		return Scalar{Kind: KindMap}
	case List:
		return Scalar{Kind: KindList}
	default:
		return Scalar{Kind: KindNull}
	}
}

// value преобразует скаляр обратно в Value
func (s Scalar) value() Value {
	switch s.Kind {
	case KindBool:
		return Bool(s.Bool)
	case KindNumber:
		return Number(s.Num)
	case KindString:
		return String(s.Str)
	default:
		return Null{}
	}
}

func (s Scalar) valid() bool {
	return s.Kind >= KindNull && s.Kind <= KindList
}
