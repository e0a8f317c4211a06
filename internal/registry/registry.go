// Package registry tracks the active masquerade of every user in a session.
//
// A single mutex guards the whole map. Activate, Deactivate, With, and
// ForEach call into masquerades while holding it, so the unmask of an old
// disguise, the broadcast of its replacement, and the map write form one
// linearizable step per user.
package registry

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Roster lists the users currently connected to the session.
type Roster interface {
	Online() []types.Observer
}

// Registry maps user ids to their active masquerade. At most one entry exists
// per user.
type Registry struct {
	mu      sync.Mutex
	roster  Roster
	entries map[uuid.UUID]types.Masquerade
	log     zerolog.Logger
}

// New creates an empty registry that broadcasts to the users in roster.
func New(roster Roster, log zerolog.Logger) *Registry {
	return &Registry{
		roster:  roster,
		entries: make(map[uuid.UUID]types.Masquerade),
		log:     log.With().Str("component", "registry").Logger(),
	}
}

// Get returns the active masquerade of owner.
func (r *Registry) Get(owner uuid.UUID) (types.Masquerade, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.entries[owner]
	return m, ok
}

// Activate makes m the active masquerade of owner. Any previous masquerade is
// unmasked first, then m is shown to every online user except owner, then the
// entry is stored. Passing a nil masquerade is a programming error.
func (r *Registry) Activate(owner uuid.UUID, m types.Masquerade) {
	if m == nil {
		panic("registry: Activate called with nil masquerade")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[owner]; ok {
		old.Unmask()
	}

	shown := 0
	for _, p := range r.roster.Online() {
		if p.UniqueID() == owner {
			continue
		}
		m.MaskTo(p)
		shown++
	}

	r.entries[owner] = m
	r.log.Debug().Stringer("owner", owner).Int("observers", shown).Msg("masquerade activated")
}

// Deactivate unmasks and removes the masquerade of owner.
// Returns types.ErrNotMasked if owner has none; the registry is unchanged.
func (r *Registry) Deactivate(owner uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.entries[owner]
	if !ok {
		return types.ErrNotMasked
	}
	m.Unmask()
	delete(r.entries, owner)
	r.log.Debug().Stringer("owner", owner).Msg("masquerade deactivated")
	return nil
}

// KeysFor returns the keys exposed by owner's masquerade, or nil if owner has
// none.
func (r *Registry) KeysFor(owner uuid.UUID) []types.Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.entries[owner]; ok {
		return m.Keys()
	}
	return nil
}

// ValidChoices returns the sorted key ids owner may pass to the option
// command. Empty when owner is not masked.
func (r *Registry) ValidChoices(owner uuid.UUID) []string {
	keys := r.KeysFor(owner)
	choices := make([]string, 0, len(keys))
	for _, k := range keys {
		choices = append(choices, k.ID())
	}
	sort.Strings(choices)
	return choices
}

// With calls fn with owner's masquerade while holding the registry lock, so
// the masquerade cannot be swapped out underneath fn. fn must not call back
// into the registry. Returns types.ErrNotMasked if owner has none.
func (r *Registry) With(owner uuid.UUID, fn func(types.Masquerade) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.entries[owner]
	if !ok {
		return types.ErrNotMasked
	}
	return fn(m)
}

// ForEach calls fn for every entry while holding the registry lock. fn must
// not call back into the registry.
func (r *Registry) ForEach(fn func(owner uuid.UUID, m types.Masquerade)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, m := range r.entries {
		fn(owner, m)
	}
}

// Len returns the number of active masquerades.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close unmasks every active masquerade and empties the registry. It is
// called when the session ends.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for owner, m := range r.entries {
		m.Unmask()
		delete(r.entries, owner)
	}
	r.log.Debug().Msg("registry closed")
}
