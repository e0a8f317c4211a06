package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masquerade/internal/testutil"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

type sent struct {
	to string
	p  Packet
}

type recordingSink struct {
	mu      sync.Mutex
	packets []sent
}

func (s *recordingSink) Send(o types.Observer, p Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, sent{to: o.Name(), p: p})
}

func (s *recordingSink) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.packets...)
}

func newTestFactory(t *testing.T) (*Factory, *recordingSink) {
	t.Helper()
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	sink := &recordingSink{}
	return NewFactory(cat, sink), sink
}

func TestDefaultCatalog(t *testing.T) {
	cat, err := DefaultCatalog()
	require.NoError(t, err)

	z, ok := cat.EntityType("zombie")
	require.True(t, ok)
	assert.Equal(t, "minecraft:zombie", z.ID)
	assert.Equal(t, "Zombie", z.Name)

	_, ok = cat.EntityType("minecraft:dragon_of_doom")
	assert.False(t, ok)

	_, ok = cat.BlockType("stone")
	assert.True(t, ok)

	ids := make([]string, 0)
	for _, k := range cat.Keys("minecraft:zombie") {
		ids = append(ids, k.ID())
	}
	assert.Contains(t, ids, "baby")
	assert.Contains(t, ids, "customname")

	entities := cat.EntityTypes()
	require.NotEmpty(t, entities)
	for i := 1; i < len(entities); i++ {
		assert.Less(t, entities[i-1].ID, entities[i].ID)
	}
	assert.NotEmpty(t, cat.BlockTypes())
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad toml", "[[entity]\nid="},
		{"bad type", "[[entity]]\nid = \"x\"\n[[entity.key]]\nid = \"k\"\ntype = \"double\""},
		{"bad default", "[[common]]\nid = \"k\"\ntype = \"int\"\ndefault = \"many\""},
		{"duplicate", "[[entity]]\nid = \"x\"\n[[entity]]\nid = \"minecraft:x\""},
		{"empty id", "[[entity]]\nname = \"Nameless\""},
		{"empty key id", "[[common]]\ntype = \"bool\""},
		{"key clashes with common", "[[common]]\nid = \"baby\"\ntype = \"bool\"\n[[entity]]\nid = \"zombie\"\n[[entity.key]]\nid = \"Baby\"\ntype = \"int\""},
		{"duplicate entity key", "[[entity]]\nid = \"slime\"\n[[entity.key]]\nid = \"size\"\ntype = \"int\"\n[[entity.key]]\nid = \"SIZE\"\ntype = \"byte\""},
		{"duplicate common key", "[[common]]\nid = \"glowing\"\ntype = \"bool\"\n[[common]]\nid = \"Glowing\"\ntype = \"bool\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog(tt.src)
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[entity]]
id = "custom:ghost"
name = "Ghost"

  [[entity.key]]
  id = "opacity"
  type = "float"
  default = "0.5"
`), 0o644))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	_, ok := cat.EntityType("custom:ghost")
	assert.True(t, ok)
	keys := cat.Keys("custom:ghost")
	require.Len(t, keys, 1)
	def, ok := keys[0].Default()
	require.True(t, ok)
	assert.Equal(t, 0.5, def)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestMasqueradeLifecycle(t *testing.T) {
	f, sink := newTestFactory(t)
	alice := testutil.NewPlayer("alice")
	bob := testutil.NewPlayer("bob")

	m, err := f.FromType(types.EntityType{ID: "minecraft:zombie"}, alice)
	require.NoError(t, err)
	em := m.(*Masquerade)

	v, ok := em.Data("baby")
	require.True(t, ok)
	assert.Equal(t, false, v)

	m.MaskTo(alice) // owners never see themselves
	m.MaskTo(bob)
	m.MaskTo(bob) // idempotent per observer
	assert.Equal(t, 1, em.Viewers())

	packets := sink.all()
	require.Len(t, packets, 1)
	assert.Equal(t, "bob", packets[0].to)
	assert.Equal(t, PacketSpawn, packets[0].p.Kind)
	assert.Equal(t, "minecraft:zombie", packets[0].p.Entity)
	assert.Equal(t, alice.ID, packets[0].p.Owner)

	var baby types.Key
	for _, k := range m.Keys() {
		if k.ID() == "baby" {
			baby = k
		}
	}
	require.NotNil(t, baby)
	require.NoError(t, m.SetData(baby, true))
	v, _ = em.Data("baby")
	assert.Equal(t, true, v)

	packets = sink.all()
	require.Len(t, packets, 2)
	assert.Equal(t, PacketUpdate, packets[1].p.Kind)
	assert.Equal(t, map[string]any{"baby": true}, packets[1].p.Data)

	m.Unmask()
	assert.Equal(t, 0, em.Viewers())
	packets = sink.all()
	require.Len(t, packets, 3)
	assert.Equal(t, PacketDestroy, packets[2].p.Kind)
}

func TestSetDataRejectsBadInput(t *testing.T) {
	f, _ := newTestFactory(t)
	m, err := f.FromType(types.EntityType{ID: "minecraft:slime"}, testutil.NewPlayer("alice"))
	require.NoError(t, err)

	err = m.SetData(testutil.Key{KeyID: "size", Type: types.ValueInt}, "big")
	assert.ErrorIs(t, err, types.ErrTypeMismatch)

	err = m.SetData(testutil.Key{KeyID: "wings", Type: types.ValueBool}, true)
	assert.ErrorIs(t, err, types.ErrKeyNotExposed)

	assert.NoError(t, m.SetData(testutil.Key{KeyID: "SIZE", Type: types.ValueInt}, int32(4)))
	v, _ := m.(*Masquerade).Data("size")
	assert.Equal(t, int32(4), v)
}

func TestFactoryErrors(t *testing.T) {
	f, _ := newTestFactory(t)
	owner := testutil.NewPlayer("alice")

	_, err := f.FromType(types.EntityType{ID: "minecraft:unicorn"}, owner)
	assert.ErrorIs(t, err, types.ErrUnknownType)

	_, err = f.FallbackVariant(types.DefaultBlockState(types.BlockType{ID: "minecraft:cake"}), owner)
	assert.ErrorIs(t, err, types.ErrUnknownType)
}

func TestFallbackVariant(t *testing.T) {
	f, sink := newTestFactory(t)
	stone, ok := f.Catalog().BlockType("stone")
	require.True(t, ok)

	m, err := f.FallbackVariant(types.DefaultBlockState(stone), testutil.NewPlayer("alice"))
	require.NoError(t, err)
	m.MaskTo(testutil.NewPlayer("bob"))

	packets := sink.all()
	require.Len(t, packets, 1)
	assert.Equal(t, types.FallingBlockTypeID, packets[0].p.Entity)
	assert.Equal(t, "minecraft:stone", packets[0].p.Block)
}
