package crdt

import (
	"errors"
	"fmt"
)

const imageVersion = 1

// image сохраненная форма реплики: вся причинная история, а не только
// текущее значение, чтобы загруженная реплика сливалась с незнакомыми пирами.
type image struct {
	ScopeID string   `cbor:"2,keyasint"`
	Actor   string   `cbor:"3,keyasint"`
	Changes [][]byte `cbor:"4,keyasint"`
	Pending [][]byte `cbor:"5,keyasint,omitempty"`
	Version int      `cbor:"1,keyasint"`
}

// Save сериализует реплику
func (r *Replica) Save() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	img := image{
		Version: imageVersion,
		ScopeID: r.scopeID,
		Actor:   r.clock.GetActor(),
		Changes: EncodeChanges(r.history),
	}
	pending := make([]*Change, 0, len(r.pending))
	for _, c := range r.pending {
		pending = append(pending, c)
	}
	img.Pending = EncodeChanges(sortedByHash(pending))

	data, err := encMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode replica: %w", err)
	}
	return data, nil
}

// Load восстанавливает реплику, сохраненную Save. Сохраненный актор остается,
// если не задан WithActor. Непустой scopeID должен совпадать с сохраненным.
func Load(scopeID string, data []byte, opts ...Option) (*Replica, error) {
	var img image
	if err := decMode.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptReplica, err)
	}
	if img.Version != imageVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptReplica, img.Version)
	}
	if scopeID != "" && scopeID != img.ScopeID {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrScopeMismatch, scopeID, img.ScopeID)
	}

	o := applyOptions(opts)
	if o.actor == "" {
		o.actor = img.Actor
	}
	r := newReplica(img.ScopeID, o)

	changes, err := DecodeChanges(img.Changes)
	if err != nil {
		return nil, errors.Join(ErrCorruptReplica, err)
	}
	pending, err := DecodeChanges(img.Pending)
	if err != nil {
		return nil, errors.Join(ErrCorruptReplica, err)
	}
	if _, err := r.ApplyChanges(append(changes, pending...)); err != nil {
		return nil, errors.Join(ErrCorruptReplica, err)
	}
	if r.PendingCount() != len(pending) {
		return nil, fmt.Errorf("%w: history has unresolved dependencies", ErrCorruptReplica)
	}
	return r, nil
}

func sortedByHash(cs []*Change) []*Change {
	hs := make([]Hash, len(cs))
	byHash := make(map[Hash]*Change, len(cs))
	for i, c := range cs {
		hs[i] = c.hash
		byHash[c.hash] = c
	}
	sortHashes(hs)
	out := make([]*Change, len(hs))
	for i, h := range hs {
		out[i] = byHash[h]
	}
	return out
}
