package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/masquerade/internal/coerce"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Masquerade is the engine's disguise: an entity appearance with typed data,
// tracked per observer it has been shown to.
type Masquerade struct {
	owner  types.Observer
	entity types.EntityType
	block  *types.BlockState
	keys   []KeySpec
	sink   Sink

	mu      sync.Mutex
	data    map[string]any
	viewers map[uuid.UUID]types.Observer
}

func newMasquerade(owner types.Observer, entity types.EntityType, keys []KeySpec, sink Sink) *Masquerade {
	m := &Masquerade{
		owner:   owner,
		entity:  entity,
		keys:    keys,
		sink:    sink,
		data:    make(map[string]any),
		viewers: make(map[uuid.UUID]types.Observer),
	}
	for _, k := range keys {
		if v, ok := k.Default(); ok {
			m.data[k.ID()] = v
		}
	}
	return m
}

// Entity returns the entity type the owner is disguised as.
func (m *Masquerade) Entity() types.EntityType { return m.entity }

// Owner returns the disguised user.
func (m *Masquerade) Owner() types.Observer { return m.owner }

// MaskTo shows the disguise to o. The owner never sees their own disguise.
// Repeated calls for the same observer send nothing; an observer that
// reconnected arrives as a new value and is sent the disguise again.
func (m *Masquerade) MaskTo(o types.Observer) {
	if o.UniqueID() == m.owner.UniqueID() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.viewers[o.UniqueID()]; ok && prev == o {
		return
	}
	m.viewers[o.UniqueID()] = o
	m.sink.Send(o, m.spawnPacket())
}

// Unmask restores the owner's appearance for every viewer.
func (m *Masquerade) Unmask() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.viewers {
		m.sink.Send(o, Packet{Kind: PacketDestroy, Owner: m.owner.UniqueID(), OwnerName: m.owner.Name()})
		delete(m.viewers, id)
	}
}

// Keys returns the keys this disguise exposes.
func (m *Masquerade) Keys() []types.Key {
	keys := make([]types.Key, len(m.keys))
	for i, k := range m.keys {
		keys[i] = k
	}
	return keys
}

// SetData stores value for key and pushes the change to current viewers.
func (m *Masquerade) SetData(key types.Key, value any) error {
	spec, ok := m.lookup(key.ID())
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrKeyNotExposed, key.ID())
	}
	if !coerce.Matches(spec.ValueType(), value) {
		return fmt.Errorf("%w: key %s wants %s, got %T", types.ErrTypeMismatch, spec.ID(), spec.ValueType(), value)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[spec.ID()] = value
	for _, o := range m.viewers {
		m.sink.Send(o, Packet{
			Kind:      PacketUpdate,
			Owner:     m.owner.UniqueID(),
			OwnerName: m.owner.Name(),
			Data:      map[string]any{spec.ID(): value},
		})
	}
	return nil
}

// Data returns the current value of keyID.
func (m *Masquerade) Data(keyID string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[keyID]
	return v, ok
}

// Viewers returns the number of observers currently shown the disguise.
func (m *Masquerade) Viewers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.viewers)
}

func (m *Masquerade) lookup(id string) (KeySpec, bool) {
	for _, k := range m.keys {
		if strings.EqualFold(k.ID(), id) {
			return k, true
		}
	}
	return KeySpec{}, false
}

// spawnPacket must be called with m.mu held.
func (m *Masquerade) spawnPacket() Packet {
	data := make(map[string]any, len(m.data))
	for k, v := range m.data {
		data[k] = v
	}
	p := Packet{
		Kind:      PacketSpawn,
		Owner:     m.owner.UniqueID(),
		OwnerName: m.owner.Name(),
		Entity:    m.entity.ID,
		Data:      data,
	}
	if m.block != nil {
		p.Block = m.block.Type.ID
	}
	return p
}
