// Package testutil provides recording fakes of the disguise engine and session
// collaborators for unit tests.
package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Recorder collects calls from every fake sharing it, in order.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

// Record appends a formatted call.
func (r *Recorder) Record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Reset discards recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Key is a fixed Key implementation.
type Key struct {
	KeyID string
	Type  types.ValueType
}

func (k Key) ID() string                 { return k.KeyID }
func (k Key) ValueType() types.ValueType { return k.Type }

// Masquerade records MaskTo, Unmask, and SetData calls as
// "<label>.maskTo(<observer>)", "<label>.unmask()", "<label>.setData(<key>=<value>)".
type Masquerade struct {
	Label   string
	KeyList []types.Key
	Rec     *Recorder
	SetErr  error

	mu   sync.Mutex
	data map[string]any
}

func (m *Masquerade) MaskTo(o types.Observer) { m.Rec.Record("%s.maskTo(%s)", m.Label, o.Name()) }
func (m *Masquerade) Unmask()                 { m.Rec.Record("%s.unmask()", m.Label) }
func (m *Masquerade) Keys() []types.Key       { return m.KeyList }

func (m *Masquerade) SetData(k types.Key, v any) error {
	m.Rec.Record("%s.setData(%s=%v)", m.Label, k.ID(), v)
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]any)
	}
	m.data[k.ID()] = v
	return nil
}

// Data returns the last value set for keyID.
func (m *Masquerade) Data(keyID string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[keyID]
	return v, ok
}

// Player is a Participant and Source with an explicit permission set.
// A "*" permission grants everything.
type Player struct {
	ID          uuid.UUID
	PlayerName  string
	Permissions map[string]bool

	mu       sync.Mutex
	messages []string
}

// NewPlayer returns a player with a random id holding perms.
func NewPlayer(name string, perms ...string) *Player {
	p := &Player{ID: uuid.New(), PlayerName: name, Permissions: make(map[string]bool)}
	for _, node := range perms {
		p.Permissions[node] = true
	}
	return p
}

func (p *Player) UniqueID() uuid.UUID                     { return p.ID }
func (p *Player) Name() string                            { return p.PlayerName }
func (p *Player) Participant() (types.Participant, bool) { return p, true }

func (p *Player) HasPermission(node string) bool {
	return p.Permissions["*"] || p.Permissions[node]
}

func (p *Player) SendMessage(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// Messages returns the messages sent to the player.
func (p *Player) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

// Console is a Source that is not a session participant.
type Console struct {
	Player
}

// NewConsole returns a console source.
func NewConsole() *Console {
	return &Console{Player: Player{PlayerName: "console"}}
}

func (c *Console) Participant() (types.Participant, bool) { return nil, false }

// Roster is a mutable list of online observers.
type Roster struct {
	mu      sync.Mutex
	players []types.Observer
}

// NewRoster returns a roster holding players.
func NewRoster(players ...types.Observer) *Roster {
	return &Roster{players: players}
}

// Add appends o to the roster.
func (r *Roster) Add(o types.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = append(r.players, o)
}

func (r *Roster) Online() []types.Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Observer(nil), r.players...)
}

// Factory builds recording masquerades labelled "<entity id>#<n>".
type Factory struct {
	Rec  *Recorder
	Keys []types.Key
	Err  error

	mu    sync.Mutex
	n     int
	Built []*Masquerade
}

func (f *Factory) FromType(e types.EntityType, owner types.Participant) (types.Masquerade, error) {
	return f.build(e.ID, owner)
}

func (f *Factory) FallbackVariant(st types.BlockState, owner types.Participant) (types.Masquerade, error) {
	return f.build(types.FallingBlockTypeID+"/"+st.Type.ID, owner)
}

func (f *Factory) build(label string, owner types.Participant) (types.Masquerade, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	m := &Masquerade{Label: fmt.Sprintf("%s#%d", label, f.n), KeyList: f.Keys, Rec: f.Rec}
	f.Built = append(f.Built, m)
	f.Rec.Record("factory(%s,%s)", label, owner.Name())
	return m, nil
}

// Last returns the most recently built masquerade, or nil.
func (f *Factory) Last() *Masquerade {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Built) == 0 {
		return nil
	}
	return f.Built[len(f.Built)-1]
}
