// Package joinsync shows already active masquerades to users as they connect.
package joinsync

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/masquerade/internal/registry"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Handler replays the registry to newly connected users.
type Handler struct {
	registry *registry.Registry
	log      zerolog.Logger
}

// New returns a handler reading from reg.
func New(reg *registry.Registry, log zerolog.Logger) *Handler {
	return &Handler{registry: reg, log: log.With().Str("component", "joinsync").Logger()}
}

// UserConnected shows every other user's active masquerade to joined. The
// registry lock is held for the whole replay, so a concurrent swap is seen
// either entirely before or entirely after it.
func (h *Handler) UserConnected(joined types.Observer) {
	shown := 0
	h.registry.ForEach(func(owner uuid.UUID, m types.Masquerade) {
		if owner == joined.UniqueID() {
			return
		}
		m.MaskTo(joined)
		shown++
	})
	h.log.Debug().Str("player", joined.Name()).Int("masquerades", shown).Msg("join sync")
}
