// Package host assembles a session with the masquerade registry, commands,
// join sync, disguise engine, and permission store.
package host

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/masquerade/internal/command"
	"github.com/mesh-intelligence/masquerade/internal/engine"
	"github.com/mesh-intelligence/masquerade/internal/joinsync"
	"github.com/mesh-intelligence/masquerade/internal/perms"
	"github.com/mesh-intelligence/masquerade/internal/registry"
	"github.com/mesh-intelligence/masquerade/internal/session"
)

// Options configures New.
type Options struct {
	// Catalog path; empty uses the built-in catalog.
	CatalogPath string

	// DefaultPermissions apply to every player.
	DefaultPermissions []string

	// PlayerPermissions maps player names to their extra nodes.
	PlayerPermissions map[string][]string
}

// Host is a running session.
type Host struct {
	Session    *session.Session
	Registry   *registry.Registry
	Dispatcher *command.Dispatcher
	Factory    *engine.Factory
	Perms      *perms.Store

	log zerolog.Logger
}

// New builds a host writing player-visible output to out.
func New(opts Options, out io.Writer, log zerolog.Logger) (*Host, error) {
	catalog, err := LoadCatalog(opts.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := perms.Open()
	if err != nil {
		return nil, err
	}
	if err := store.Apply(perms.DefaultSubject, opts.DefaultPermissions); err != nil {
		store.Close()
		return nil, fmt.Errorf("default permissions: %w", err)
	}
	for name, nodes := range opts.PlayerPermissions {
		if err := store.Apply(name, nodes); err != nil {
			store.Close()
			return nil, fmt.Errorf("permissions for %s: %w", name, err)
		}
	}

	sess := session.New(store, out, log)
	reg := registry.New(sess, log)
	factory := engine.NewFactory(catalog, sess)
	sess.Subscribe(joinsync.New(reg, log))

	log.Info().
		Int("entities", len(catalog.EntityTypes())).
		Int("blocks", len(catalog.BlockTypes())).
		Msg("session started")

	return &Host{
		Session:    sess,
		Registry:   reg,
		Dispatcher: command.New(reg, factory, catalog, log),
		Factory:    factory,
		Perms:      store,
		log:        log,
	}, nil
}

// LoadCatalog reads the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (*engine.Catalog, error) {
	if path == "" {
		return engine.DefaultCatalog()
	}
	return engine.LoadCatalog(path)
}

// Close ends the session: every masquerade is unmasked and the permission
// store is released.
func (h *Host) Close() error {
	h.Registry.Close()
	h.log.Info().Msg("session ended")
	return h.Perms.Close()
}
