package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masquerade/internal/coerce"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

const (
	usageMask        = "/mask <entity>"
	usageOption      = "/mask option <key> <value>"
	usageFallingSand = "/mask " + types.FallingBlockTypeID + " <block>"
	usageUnmask      = "/unmask"
)

func usage(form string) error {
	return fmt.Errorf("%w: %s", types.ErrUsage, form)
}

func (d *Dispatcher) newMaskCmd(src types.Source) *cobra.Command {
	return &cobra.Command{
		Use:                "mask <entity>",
		Short:              "Disguise yourself as an entity",
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 1:
				return nil
			case len(args) == 2 && isFallingBlockID(args[0]):
				return nil
			case len(args) >= 3 && strings.EqualFold(args[0], "option"):
				return nil
			case len(args) >= 4 && strings.EqualFold(args[1], "option"):
				return nil
			}
			return usage(usageMask)
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 0:
				return d.entityChoices(toComplete), cobra.ShellCompDirectiveNoFileComp
			case 1:
				if isFallingBlockID(args[0]) {
					return d.blockChoices(toComplete), cobra.ShellCompDirectiveNoFileComp
				}
				return filterPrefix([]string{"option"}, toComplete), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case strings.EqualFold(args[0], "option"):
				return d.runOption(src, args[1], strings.Join(args[2:], " "))
			case len(args) == 2:
				// Falling block typed in a case cobra does not route.
				return d.runFallingBlock(src, args[1])
			case len(args) > 1:
				// "/mask <entity> option <key> <value>" sets an option on the
				// active masquerade; the entity is informational.
				return d.runOption(src, args[2], strings.Join(args[3:], " "))
			}
			return d.runMask(src, args[0])
		},
	}
}

func (d *Dispatcher) newOptionCmd(src types.Source) *cobra.Command {
	return &cobra.Command{
		Use:                "option <key> <value>",
		Short:              "Change an option of your active disguise",
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return usage(usageOption)
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return filterPrefix(d.ValidChoices(src), toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.runOption(src, args[0], strings.Join(args[1:], " "))
		},
	}
}

func (d *Dispatcher) newFallingBlockCmd(src types.Source) *cobra.Command {
	return &cobra.Command{
		Use:                types.FallingBlockTypeID + " <block>",
		Aliases:            []string{"fallingsand"},
		Short:              "Disguise yourself as a falling block",
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usage(usageFallingSand)
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return d.blockChoices(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.runFallingBlock(src, args[0])
		},
	}
}

func (d *Dispatcher) newUnmaskCmd(src types.Source) *cobra.Command {
	return &cobra.Command{
		Use:                "unmask",
		Short:              "Remove your disguise",
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usage(usageUnmask)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.runUnmask(src)
		},
	}
}

func (d *Dispatcher) runMask(src types.Source, entityID string) error {
	p, err := participant(src)
	if err != nil {
		return err
	}
	if err := requirePerms(p, "use masquerades", types.PermMask); err != nil {
		return err
	}

	entity, ok := d.catalog.EntityType(entityID)
	if !ok {
		return fmt.Errorf("%w: no entity named %s", types.ErrUnknownType, entityID)
	}
	if entity.ID == types.FallingBlockTypeID {
		return usage(usageFallingSand)
	}
	if err := requirePerms(p, "use this masquerade", types.MaskPermission(entity.ID)); err != nil {
		return err
	}

	m, err := d.factory.FromType(entity, p)
	if err != nil {
		return fmt.Errorf("create masquerade %s: %w", entity.ID, err)
	}
	d.registry.Activate(p.UniqueID(), m)

	d.log.Info().Str("player", p.Name()).Str("entity", entity.ID).Msg("player masked")
	src.SendMessage(fmt.Sprintf("You are now masked as %s.", displayName(entity.Name, entity.ID)))
	return nil
}

func (d *Dispatcher) runFallingBlock(src types.Source, blockID string) error {
	p, err := participant(src)
	if err != nil {
		return err
	}
	if err := requirePerms(p, "use this masquerade", types.PermMask, types.MaskPermission(types.FallingBlockTypeID)); err != nil {
		return err
	}

	block, ok := d.catalog.BlockType(blockID)
	if !ok {
		return fmt.Errorf("%w: no block named %s", types.ErrUnknownType, blockID)
	}

	m, err := d.factory.FallbackVariant(types.DefaultBlockState(block), p)
	if err != nil {
		return fmt.Errorf("create falling block %s: %w", block.ID, err)
	}
	d.registry.Activate(p.UniqueID(), m)

	d.log.Info().Str("player", p.Name()).Str("block", block.ID).Msg("player masked as falling block")
	src.SendMessage(fmt.Sprintf("You are now masked as falling %s.", displayName(block.Name, block.ID)))
	return nil
}

func (d *Dispatcher) runOption(src types.Source, keyArg, raw string) error {
	p, err := participant(src)
	if err != nil {
		return err
	}
	if err := requirePerms(p, "change masquerade options", types.PermMask, types.PermMaskOption); err != nil {
		return err
	}

	var keyID string
	err = d.registry.With(p.UniqueID(), func(m types.Masquerade) error {
		key := findKey(m.Keys(), keyArg)
		if key == nil {
			return fmt.Errorf("%w %s", types.ErrUnknownKey, keyArg)
		}
		keyID = key.ID()
		if err := requirePerms(p, "modify this key", types.OptionPermission(key.ID())); err != nil {
			return err
		}
		value, err := coerce.Coerce(key, raw)
		if err != nil {
			return err
		}
		if err := m.SetData(key, value); err != nil {
			return fmt.Errorf("%w for key %s: %v", types.ErrRejected, key.ID(), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.log.Info().Str("player", p.Name()).Str("key", keyID).Str("value", raw).Msg("masquerade option set")
	src.SendMessage(fmt.Sprintf("Set %s to %s.", keyID, raw))
	return nil
}

func (d *Dispatcher) runUnmask(src types.Source) error {
	p, err := participant(src)
	if err != nil {
		return err
	}
	if err := d.registry.Deactivate(p.UniqueID()); err != nil {
		return err
	}
	d.log.Info().Str("player", p.Name()).Msg("player unmasked")
	src.SendMessage("You are no longer masked.")
	return nil
}

// isFallingBlockID reports whether arg names the falling-block entity in any
// letter case, with or without its namespace.
func isFallingBlockID(arg string) bool {
	return types.NormalizeID(arg) == types.FallingBlockTypeID
}

// findKey matches id case-insensitively against keys.
func findKey(keys []types.Key, id string) types.Key {
	for _, k := range keys {
		if strings.EqualFold(k.ID(), id) {
			return k
		}
	}
	return nil
}

func (d *Dispatcher) entityChoices(prefix string) []string {
	var ids []string
	for _, e := range d.catalog.EntityTypes() {
		ids = append(ids, e.ID)
	}
	return filterIDs(ids, prefix)
}

func (d *Dispatcher) blockChoices(prefix string) []string {
	var ids []string
	for _, b := range d.catalog.BlockTypes() {
		ids = append(ids, b.ID)
	}
	return filterIDs(ids, prefix)
}

// filterIDs matches prefix against the full id and against the id without
// the default namespace.
func filterIDs(ids []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, id := range ids {
		short := strings.TrimPrefix(id, types.DefaultNamespace+":")
		if strings.HasPrefix(id, prefix) || strings.HasPrefix(short, prefix) {
			out = append(out, id)
		}
	}
	return out
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
