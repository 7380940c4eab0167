package crdt

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Hash контентный адрес закодированного изменения
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash разбирает hex форму из Hash.String
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(h) {
		return h, fmt.Errorf("invalid change hash %q", s)
	}
	copy(h[:], raw)
	return h, nil
}

func sortHashes(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool {
		return bytes.Compare(hs[i][:], hs[j][:]) < 0
	})
}

// Action вид мутации, которую выполняет Op
type Action uint8

const (
	// ActionPut присваивает значение ключу map или элементу списка. С Insert
	// создает новый элемент списка после Elem. Контейнеры (map, list) создают
	// пустой вложенный объект с id операции.
	ActionPut Action = iota + 1
	// ActionDelete удаляет значения, перечисленные в Pred
	ActionDelete
)

// Op одна мутация поля. Ее id задается позицией в Change (StartOp + индекс).
type Op struct {
	Key    string `cbor:"3,keyasint,omitempty"`
	Obj    OpID   `cbor:"2,keyasint"`
	Elem   OpID   `cbor:"4,keyasint"`
	Pred   []OpID `cbor:"7,keyasint,omitempty"`
	Value  Scalar `cbor:"6,keyasint"`
	Action Action `cbor:"1,keyasint"`
	Insert bool   `cbor:"5,keyasint,omitempty"`
}

// Change атомарный пакет операций одного актора с причинной адресацией.
// Deps хэши изменений, примененных автором на момент правки (его heads).
type Change struct {
	Actor   string `cbor:"1,keyasint"`
	Message string `cbor:"5,keyasint,omitempty"`
	Deps    []Hash `cbor:"6,keyasint,omitempty"`
	Ops     []Op   `cbor:"7,keyasint"`
	Seq     uint64 `cbor:"2,keyasint"`
	StartOp uint64 `cbor:"3,keyasint"`
	Time    int64  `cbor:"4,keyasint,omitempty"`

	raw  []byte
	hash Hash
}

// Hash возвращает контентный адрес изменения
func (c *Change) Hash() Hash {
	return c.hash
}

// Bytes возвращает каноническую кодировку изменения
func (c *Change) Bytes() []byte {
	return c.raw
}

// MaxOp счетчик последней операции изменения
func (c *Change) MaxOp() uint64 {
	if len(c.Ops) == 0 {
		return c.StartOp
	}
	return c.StartOp + uint64(len(c.Ops)) - 1
}

func (c *Change) opID(i int) OpID {
	return OpID{Counter: c.StartOp + uint64(i), Actor: c.Actor}
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("crdt: cbor enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 20,
		MaxMapPairs:      1 << 20,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("crdt: cbor dec mode: %v", err))
	}
}

// seal кодирует изменение и вычисляет хэш
func (c *Change) seal() error {
	raw, err := encMode.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	c.raw = raw
	c.hash = blake2b.Sum256(raw)
	return nil
}

// DecodeChange разбирает изменение и проверяет его форму
func DecodeChange(data []byte) (*Change, error) {
	var c Change
	if err := decMode.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}
	if err := c.validateShape(); err != nil {
		return nil, err
	}
	c.raw = append([]byte(nil), data...)
	c.hash = blake2b.Sum256(c.raw)
	return &c, nil
}

// EncodeChanges возвращает кодировку каждого изменения
func EncodeChanges(changes []*Change) [][]byte {
	out := make([][]byte, len(changes))
	for i, c := range changes {
		out[i] = c.Bytes()
	}
	return out
}

// DecodeChanges декодирует пакет, останавливаясь на первой некорректной записи
func DecodeChanges(data [][]byte) ([]*Change, error) {
	out := make([]*Change, 0, len(data))
	for i, raw := range data {
		c, err := DecodeChange(raw)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (c *Change) validateShape() error {
	if c.Actor == "" {
		return fmt.Errorf("%w: empty actor", ErrMalformedChange)
	}
	if c.Seq == 0 || c.StartOp == 0 {
		return fmt.Errorf("%w: zero seq or start op", ErrMalformedChange)
	}
	for i, op := range c.Ops {
		if !op.Value.valid() && op.Action == ActionPut {
			return fmt.Errorf("%w: op %d has invalid value kind", ErrMalformedChange, i)
		}
		switch op.Action {
		case ActionPut:
		case ActionDelete:
			if op.Insert {
				return fmt.Errorf("%w: op %d deletes with insert flag", ErrMalformedChange, i)
			}
		default:
			return fmt.Errorf("%w: op %d has unknown action %d", ErrMalformedChange, i, op.Action)
		}
	}
	return nil
}
