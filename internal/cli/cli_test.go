package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args against dir and returns stdout.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "masquerade v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInitWritesConfigAndCatalogOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf")

	out, err := run(t, dir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "config.yaml")
	assert.Contains(t, out, "catalog.toml")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, "catalog.toml"))

	out, err = run(t, dir, "", "init")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrote")
	assert.Contains(t, out, "masquerade initialized in")
}

func TestCatalogJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "catalog", "--json")
	require.NoError(t, err)

	var got catalogJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.Entities)
	assert.Contains(t, got.Blocks, "minecraft:stone")

	var zombie *catalogEntityJSON
	for i := range got.Entities {
		if got.Entities[i].ID == "minecraft:zombie" {
			zombie = &got.Entities[i]
		}
	}
	require.NotNil(t, zombie)
	assert.Equal(t, "Zombie", zombie.Name)
	assert.Contains(t, zombie.Keys, catalogKeyJSON{ID: "baby", Type: "bool", Default: "false"})
	assert.Contains(t, zombie.Keys, catalogKeyJSON{ID: "customname", Type: "text"})
}

func TestCatalogTable(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "ENTITY")
	assert.Contains(t, out, "minecraft:creeper")
	assert.Contains(t, out, "fuse:int")
}

func TestCatalogMissingFileIsUserError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("catalog: missing.toml\n"), 0o644))

	_, err := run(t, dir, "", "catalog")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestBadConfigIsSystemError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_level: [unclosed\n"), 0o644))

	_, err := run(t, dir, "", "catalog")
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
	assert.Equal(t, exitUserError, exitCode(errors.New("plain")))
}

func TestServeConsole(t *testing.T) {
	dir := t.TempDir()
	cfg := "log_level: error\n" +
		"permissions:\n" +
		"  default: [masquerade.mask, masquerade.mask.option]\n" +
		"  players:\n" +
		"    alice: [masquerade.mask.*]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))

	script := strings.Join([]string{
		"# a comment",
		"join alice",
		"join bob",
		"alice: mask zombie",
		"list",
		"bob: mask zombie",
		"console: unmask",
		"complete alice mask zo",
		"carol: unmask",
		"dance",
		"leave bob",
		"quit",
		"join dave",
	}, "\n")

	out, err := run(t, dir, script, "serve")
	require.NoError(t, err)

	assert.Contains(t, out, "bob sees alice as minecraft:zombie")
	assert.Contains(t, out, "[alice] You are now masked as Zombie.")
	assert.Contains(t, out, "alice: minecraft:zombie\n")
	assert.Contains(t, out, "[bob] ")
	assert.Contains(t, out, "[console] ")
	assert.Contains(t, out, "minecraft:zombie\n")
	assert.Contains(t, out, "carol is not online")
	assert.Contains(t, out, `unknown input "dance"`)
	// quit stops reading; the session teardown unmasks alice for nobody.
	assert.NotContains(t, out, "dave")
}

func TestServeListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "list\n", "serve")
	require.NoError(t, err)
	assert.Contains(t, out, "(no active masquerades)")
}
