package perms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{
		"masquerade.mask.minecraft:zombie",
		"masquerade.mask.*",
		"masquerade.*",
		"*",
	}, Candidates("masquerade.mask.minecraft:zombie"))
	assert.Equal(t, []string{"op", "*"}, Candidates("op"))
}

func TestHas(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Apply(DefaultSubject, []string{"masquerade.mask", "masquerade.mask.minecraft:zombie"}))
	require.NoError(t, s.Apply("alice", []string{"masquerade.mask.*", "-masquerade.mask.minecraft:wither"}))
	require.NoError(t, s.Apply("bob", []string{"-masquerade.mask.minecraft:zombie"}))
	require.NoError(t, s.Apply("root", []string{"*"}))

	tests := []struct {
		subject, node string
		want          bool
	}{
		{"carol", "masquerade.mask", true},
		{"carol", "masquerade.mask.minecraft:zombie", true},
		{"carol", "masquerade.mask.minecraft:creeper", false},
		{"alice", "masquerade.mask.minecraft:creeper", true},
		{"Alice", "masquerade.mask.option.customname", true},
		{"alice", "masquerade.mask.minecraft:wither", false},
		{"bob", "masquerade.mask.minecraft:zombie", false},
		{"bob", "masquerade.mask", true},
		{"root", "anything.at.all", true},
		{"carol", "other.plugin", false},
	}
	for _, tt := range tests {
		t.Run(tt.subject+"/"+tt.node, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Has(tt.subject, tt.node))
		})
	}
}

func TestSubjectGrantOverridesDefaultDeny(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Grant(DefaultSubject, "masquerade.mask.*"))
	require.NoError(t, s.Deny(DefaultSubject, "masquerade.mask.*"))
	assert.False(t, s.Has("alice", "masquerade.mask.minecraft:pig"))

	require.NoError(t, s.Grant("alice", "masquerade.mask.*"))
	assert.True(t, s.Has("alice", "masquerade.mask.minecraft:pig"))
}

func TestRevoke(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Grant("alice", "masquerade.mask"))
	require.True(t, s.Has("alice", "masquerade.mask"))
	require.NoError(t, s.Revoke("alice", "masquerade.mask"))
	assert.False(t, s.Has("alice", "masquerade.mask"))
}

func TestGrantValidation(t *testing.T) {
	s := openStore(t)
	assert.Error(t, s.Grant("", "masquerade.mask"))
	assert.Error(t, s.Grant("alice", "  "))
	assert.NoError(t, s.Apply("alice", []string{"", " "}))
}
