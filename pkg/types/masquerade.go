package types

import "strings"

// Masquerade is an active disguise owned by exactly one user. It is created by
// a Factory and shown to observers by the disguise engine.
type Masquerade interface {
	// MaskTo shows the disguise to observer. Showing it twice to the same
	// observer has no additional effect.
	MaskTo(observer Observer)

	// Unmask removes the disguise from every observer it was shown to.
	Unmask()

	// Keys returns the mutable options exposed by this masquerade.
	Keys() []Key

	// SetData commits value to key. The value must already have the Go type
	// matching key.ValueType(); see internal/coerce.
	SetData(key Key, value any) error
}

// Key is a typed option exposed by a specific Masquerade instance.
type Key interface {
	// ID is the stable identifier used for command matching and permission
	// nodes.
	ID() string

	// ValueType is the type SetData expects for this key.
	ValueType() ValueType
}

// Factory builds Masquerade instances for a requesting participant.
type Factory interface {
	// FromType returns a masquerade that disguises owner as an entity.
	FromType(entity EntityType, owner Participant) (Masquerade, error)

	// FallbackVariant returns a falling-block masquerade showing state.
	FallbackVariant(state BlockState, owner Participant) (Masquerade, error)
}

// DefaultNamespace is prepended to catalog ids given without a namespace.
const DefaultNamespace = "minecraft"

// FallingBlockTypeID is the entity type that takes a block type argument
// instead of options.
const FallingBlockTypeID = "minecraft:fallingsand"

// EntityType describes an entity a player can be disguised as.
type EntityType struct {
	ID   string // Namespaced id, e.g. "minecraft:zombie".
	Name string // Display name.
}

// BlockType describes a block kind usable by the falling-block variant.
type BlockType struct {
	ID   string
	Name string
}

// BlockState is the immutable configuration of a falling block. Properties
// are copied in and out, so a state cannot change after it is built.
type BlockState struct {
	Type  BlockType
	props map[string]string
}

// NewBlockState returns a state of bt with a copy of props.
func NewBlockState(bt BlockType, props map[string]string) BlockState {
	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return BlockState{Type: bt, props: cp}
}

// DefaultBlockState returns the default state of bt: no block properties set.
func DefaultBlockState(bt BlockType) BlockState {
	return NewBlockState(bt, nil)
}

// Property returns the value of the block property name.
func (s BlockState) Property(name string) (string, bool) {
	v, ok := s.props[name]
	return v, ok
}

// Properties returns a copy of the block properties.
func (s BlockState) Properties() map[string]string {
	cp := make(map[string]string, len(s.props))
	for k, v := range s.props {
		cp[k] = v
	}
	return cp
}

// NormalizeID lowercases id and adds DefaultNamespace when it has none.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	return DefaultNamespace + ":" + id
}
