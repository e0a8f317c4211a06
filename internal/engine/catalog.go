package engine

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mesh-intelligence/masquerade/internal/coerce"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

//go:embed catalog.toml
var defaultCatalogTOML string

// DefaultCatalogTOML returns the built-in catalog source, used by init to
// write a starter catalog file.
func DefaultCatalogTOML() string {
	return defaultCatalogTOML
}

type catalogFile struct {
	Common []keyDef    `toml:"common"`
	Entity []entityDef `toml:"entity"`
	Block  []blockDef  `toml:"block"`
}

type keyDef struct {
	ID      string `toml:"id"`
	Type    string `toml:"type"`
	Default string `toml:"default"`
}

type entityDef struct {
	ID   string   `toml:"id"`
	Name string   `toml:"name"`
	Keys []keyDef `toml:"key"`
}

type blockDef struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// KeySpec is a catalog key: a Key with an optional default value.
type KeySpec struct {
	id       string
	vt       types.ValueType
	def      any
	hasValue bool
}

func (k KeySpec) ID() string                 { return k.id }
func (k KeySpec) ValueType() types.ValueType { return k.vt }

// Default returns the value a fresh masquerade starts with for this key.
func (k KeySpec) Default() (any, bool) { return k.def, k.hasValue }

// Catalog holds the entity and block types the engine can build disguises for.
type Catalog struct {
	entities map[string]types.EntityType
	blocks   map[string]types.BlockType
	keys     map[string][]KeySpec
	common   []KeySpec
}

// DefaultCatalog parses the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogTOML)
}

// LoadCatalog reads a catalog from a TOML file.
func LoadCatalog(path string) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return buildCatalog(f)
}

// ParseCatalog parses a catalog from TOML source.
func ParseCatalog(src string) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.Decode(src, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return buildCatalog(f)
}

func buildCatalog(f catalogFile) (*Catalog, error) {
	c := &Catalog{
		entities: make(map[string]types.EntityType),
		blocks:   make(map[string]types.BlockType),
		keys:     make(map[string][]KeySpec),
	}

	common, err := buildKeys(f.Common)
	if err != nil {
		return nil, fmt.Errorf("common keys: %w", err)
	}
	c.common = common

	for _, e := range f.Entity {
		id := types.NormalizeID(e.ID)
		if id == "" {
			return nil, fmt.Errorf("entity with empty id")
		}
		if _, dup := c.entities[id]; dup {
			return nil, fmt.Errorf("duplicate entity %s", id)
		}
		keys, err := buildKeys(e.Keys)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", id, err)
		}
		if err := checkKeyClash(common, keys); err != nil {
			return nil, fmt.Errorf("entity %s: %w", id, err)
		}
		c.entities[id] = types.EntityType{ID: id, Name: e.Name}
		c.keys[id] = keys
	}

	for _, b := range f.Block {
		id := types.NormalizeID(b.ID)
		if id == "" {
			return nil, fmt.Errorf("block with empty id")
		}
		c.blocks[id] = types.BlockType{ID: id, Name: b.Name}
	}
	return c, nil
}

func buildKeys(defs []keyDef) ([]KeySpec, error) {
	keys := make([]KeySpec, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		folded := strings.ToLower(d.ID)
		if folded == "" {
			return nil, fmt.Errorf("key with empty id")
		}
		if seen[folded] {
			return nil, fmt.Errorf("duplicate key %s", d.ID)
		}
		seen[folded] = true
		vt, err := types.ParseValueType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w: %q", d.ID, err, d.Type)
		}
		k := KeySpec{id: d.ID, vt: vt}
		if d.Default != "" {
			v, err := coerce.Value(vt, d.ID, d.Default)
			if err != nil {
				return nil, fmt.Errorf("default: %w", err)
			}
			k.def, k.hasValue = v, true
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// checkKeyClash fails when an entity key matches a common key ignoring case.
func checkKeyClash(common, own []KeySpec) error {
	for _, k := range own {
		for _, c := range common {
			if strings.EqualFold(k.ID(), c.ID()) {
				return fmt.Errorf("key %s duplicates common key %s", k.ID(), c.ID())
			}
		}
	}
	return nil
}

// EntityType looks up an entity type by id. Ids without a namespace resolve
// in the minecraft namespace.
func (c *Catalog) EntityType(id string) (types.EntityType, bool) {
	e, ok := c.entities[types.NormalizeID(id)]
	return e, ok
}

// BlockType looks up a block type by id.
func (c *Catalog) BlockType(id string) (types.BlockType, bool) {
	b, ok := c.blocks[types.NormalizeID(id)]
	return b, ok
}

// EntityTypes returns every entity type ordered by id.
func (c *Catalog) EntityTypes() []types.EntityType {
	list := make([]types.EntityType, 0, len(c.entities))
	for _, e := range c.entities {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// BlockTypes returns every block type ordered by id.
func (c *Catalog) BlockTypes() []types.BlockType {
	list := make([]types.BlockType, 0, len(c.blocks))
	for _, b := range c.blocks {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Keys returns the keys of entityID: the common keys followed by the
// entity's own.
func (c *Catalog) Keys(entityID string) []KeySpec {
	own := c.keys[types.NormalizeID(entityID)]
	keys := make([]KeySpec, 0, len(c.common)+len(own))
	keys = append(keys, c.common...)
	return append(keys, own...)
}
