package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masquerade/internal/coerce"
	"github.com/mesh-intelligence/masquerade/internal/engine"
	"github.com/mesh-intelligence/masquerade/internal/host"
)

type catalogKeyJSON struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

type catalogEntityJSON struct {
	ID   string           `json:"id"`
	Name string           `json:"name"`
	Keys []catalogKeyJSON `json:"keys"`
}

type catalogJSON struct {
	Entities []catalogEntityJSON `json:"entities"`
	Blocks   []string            `json:"blocks"`
}

func newCatalogCmd(state *runtimeState, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the entity and block types players can disguise as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := host.LoadCatalog(state.cfg.CatalogPath)
			if err != nil {
				return fmt.Errorf("catalog: %w", err)
			}
			if flags.jsonMode {
				return printCatalogJSON(cmd, cat)
			}
			return printCatalogTable(cmd, cat)
		},
	}
}

func describeCatalog(cat *engine.Catalog) catalogJSON {
	out := catalogJSON{Entities: []catalogEntityJSON{}, Blocks: []string{}}
	for _, e := range cat.EntityTypes() {
		ej := catalogEntityJSON{ID: e.ID, Name: e.Name, Keys: []catalogKeyJSON{}}
		for _, k := range cat.Keys(e.ID) {
			kj := catalogKeyJSON{ID: k.ID(), Type: k.ValueType().String()}
			if v, ok := k.Default(); ok {
				kj.Default = coerce.Format(v)
			}
			ej.Keys = append(ej.Keys, kj)
		}
		out.Entities = append(out.Entities, ej)
	}
	for _, b := range cat.BlockTypes() {
		out.Blocks = append(out.Blocks, b.ID)
	}
	return out
}

func printCatalogJSON(cmd *cobra.Command, cat *engine.Catalog) error {
	data, err := json.MarshalIndent(describeCatalog(cat), "", "  ")
	if err != nil {
		return systemErr("marshal catalog: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printCatalogTable(cmd *cobra.Command, cat *engine.Catalog) error {
	desc := describeCatalog(cat)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENTITY\tNAME\tKEYS")
	for _, e := range desc.Entities {
		keys := ""
		for i, k := range e.Keys {
			if i > 0 {
				keys += ", "
			}
			keys += k.ID + ":" + k.Type
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, keys)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nblocks: %d available\n", len(desc.Blocks))
	return nil
}
