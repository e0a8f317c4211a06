// Package engine is an in-process disguise engine. It builds masquerades from
// a TOML catalog of entity and block types and renders view changes as
// packets delivered to a Sink.
package engine

import (
	"fmt"

	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Factory implements types.Factory over a Catalog.
type Factory struct {
	catalog *Catalog
	sink    Sink
}

// NewFactory returns a factory building masquerades from catalog that emit
// packets to sink.
func NewFactory(catalog *Catalog, sink Sink) *Factory {
	return &Factory{catalog: catalog, sink: sink}
}

// Catalog returns the catalog the factory resolves types from.
func (f *Factory) Catalog() *Catalog { return f.catalog }

// FromType builds a masquerade disguising owner as entity.
// Returns types.ErrUnknownType if entity is not in the catalog.
func (f *Factory) FromType(entity types.EntityType, owner types.Participant) (types.Masquerade, error) {
	e, ok := f.catalog.EntityType(entity.ID)
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", types.ErrUnknownType, entity.ID)
	}
	return newMasquerade(owner, e, f.catalog.Keys(e.ID), f.sink), nil
}

// FallbackVariant builds a falling-block masquerade showing state.
// Returns types.ErrUnknownType if the block or the falling-block entity is
// not in the catalog.
func (f *Factory) FallbackVariant(state types.BlockState, owner types.Participant) (types.Masquerade, error) {
	if _, ok := f.catalog.BlockType(state.Type.ID); !ok {
		return nil, fmt.Errorf("%w: block %s", types.ErrUnknownType, state.Type.ID)
	}
	e, ok := f.catalog.EntityType(types.FallingBlockTypeID)
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", types.ErrUnknownType, types.FallingBlockTypeID)
	}
	m := newMasquerade(owner, e, f.catalog.Keys(e.ID), f.sink)
	m.block = &state
	return m, nil
}
