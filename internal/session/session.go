// Package session is the host side of a multiplayer session: it tracks
// connected players, answers their permission checks, delivers their
// messages, and renders disguise packets as text.
package session

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/masquerade/internal/coerce"
	"github.com/mesh-intelligence/masquerade/internal/engine"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Permissions answers permission checks by player name.
type Permissions interface {
	Has(subject, node string) bool
}

// ConnectListener is notified after a player joins the roster.
type ConnectListener interface {
	UserConnected(u types.Observer)
}

// Session is the roster of connected players.
type Session struct {
	perms Permissions
	out   io.Writer
	log   zerolog.Logger

	mu        sync.RWMutex
	players   map[string]*Player
	listeners []ConnectListener

	outMu sync.Mutex
}

// New returns an empty session. Messages and rendered packets are written to
// out.
func New(perms Permissions, out io.Writer, log zerolog.Logger) *Session {
	return &Session{
		perms:   perms,
		out:     out,
		log:     log.With().Str("component", "session").Logger(),
		players: make(map[string]*Player),
	}
}

// Subscribe registers l for connect events.
func (s *Session) Subscribe(l ConnectListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// PlayerID returns the stable id of the player called name.
func PlayerID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("OfflinePlayer:"+strings.ToLower(name)))
}

// Connect adds a player to the roster and notifies listeners once the player
// is visible in Online. Connecting an already connected name returns the
// existing player.
func (s *Session) Connect(name string) (*Player, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t:") {
		return nil, fmt.Errorf("invalid player name %q", name)
	}
	key := strings.ToLower(name)

	s.mu.Lock()
	if p, ok := s.players[key]; ok {
		s.mu.Unlock()
		return p, nil
	}
	p := &Player{id: PlayerID(name), name: name, session: s}
	s.players[key] = p
	listeners := append([]ConnectListener(nil), s.listeners...)
	s.mu.Unlock()

	s.log.Info().Str("player", name).Stringer("id", p.id).Msg("player connected")
	for _, l := range listeners {
		l.UserConnected(p)
	}
	return p, nil
}

// Disconnect removes a player from the roster. The player's masquerade, if
// any, stays registered and is shown again to others when they reconnect.
func (s *Session) Disconnect(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := s.players[key]; !ok {
		return false
	}
	delete(s.players, key)
	s.log.Info().Str("player", name).Msg("player disconnected")
	return true
}

// Player returns the connected player called name.
func (s *Session) Player(name string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[strings.ToLower(name)]
	return p, ok
}

// Online returns the connected players ordered by name.
func (s *Session) Online() []types.Observer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.players))
	for k := range s.players {
		names = append(names, k)
	}
	sort.Strings(names)
	list := make([]types.Observer, 0, len(names))
	for _, n := range names {
		list = append(list, s.players[n])
	}
	return list
}

// Send renders p as seen by observer.
func (s *Session) Send(observer types.Observer, p engine.Packet) {
	var line string
	switch p.Kind {
	case engine.PacketSpawn:
		what := p.Entity
		if p.Block != "" {
			what = p.Entity + "[" + p.Block + "]"
		}
		line = fmt.Sprintf("%s sees %s as %s%s", observer.Name(), p.OwnerName, what, formatData(p.Data))
	case engine.PacketUpdate:
		line = fmt.Sprintf("%s sees %s change%s", observer.Name(), p.OwnerName, formatData(p.Data))
	case engine.PacketDestroy:
		line = fmt.Sprintf("%s sees %s unmasked", observer.Name(), p.OwnerName)
	default:
		return
	}
	s.log.Debug().Str("observer", observer.Name()).Str("owner", p.OwnerName).Stringer("kind", p.Kind).Msg("packet")
	s.println(line)
}

func (s *Session) println(line string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, line)
}

func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + coerce.Format(data[k])
	}
	return " {" + strings.Join(parts, ", ") + "}"
}

// Player is a connected user.
type Player struct {
	id      uuid.UUID
	name    string
	session *Session
}

func (p *Player) UniqueID() uuid.UUID { return p.id }
func (p *Player) Name() string        { return p.name }

// HasPermission checks node against the session's permission store.
func (p *Player) HasPermission(node string) bool {
	return p.session.perms.Has(p.name, node)
}

// SendMessage prints msg addressed to the player.
func (p *Player) SendMessage(msg string) {
	p.session.println("[" + p.name + "] " + msg)
}

// Participant returns the player itself.
func (p *Player) Participant() (types.Participant, bool) { return p, true }

// Console is the operator source. It can issue commands but is not a
// session participant.
type Console struct {
	session *Session
}

// Console returns the operator source for s.
func (s *Session) Console() *Console {
	return &Console{session: s}
}

func (c *Console) Name() string { return "console" }

func (c *Console) SendMessage(msg string) {
	c.session.println("[console] " + msg)
}

func (c *Console) Participant() (types.Participant, bool) { return nil, false }
