// Package command implements the mask and unmask commands players issue in a
// session. A fresh cobra command tree is built for every invocation and bound
// to the invoking source; the valid option keys are read from the registry
// at parse and completion time.
package command

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masquerade/internal/registry"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

// Catalog resolves the entity and block ids players type.
type Catalog interface {
	EntityType(id string) (types.EntityType, bool)
	BlockType(id string) (types.BlockType, bool)
	EntityTypes() []types.EntityType
	BlockTypes() []types.BlockType
}

// Dispatcher parses command lines and drives the registry and factory.
type Dispatcher struct {
	registry *registry.Registry
	factory  types.Factory
	catalog  Catalog
	log      zerolog.Logger
}

// New returns a dispatcher.
func New(reg *registry.Registry, factory types.Factory, catalog Catalog, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		factory:  factory,
		catalog:  catalog,
		log:      log.With().Str("component", "command").Logger(),
	}
}

// Execute runs line, e.g. "/mask zombie", on behalf of src. On success the
// command's feedback is sent to src. On failure the error is reported to src
// as a message and returned; panics inside a command are recovered and
// reported the same way.
func (d *Dispatcher) Execute(src types.Source, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("source", src.Name()).Str("line", line).Interface("panic", r).Msg("command panicked")
			err = fmt.Errorf("internal error while running %q", strings.TrimSpace(line))
		}
		if err != nil {
			src.SendMessage(Message(err))
		}
	}()

	args := tokenize(line)
	root := d.newRoot(src)
	if len(args) == 0 || !isVerb(root, args[0]) {
		return fmt.Errorf("%w: /mask <entity> | /mask option <key> <value> | /unmask", types.ErrUsage)
	}
	args[0] = strings.ToLower(args[0])

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err = root.Execute()
	if err != nil {
		d.log.Debug().Err(err).Str("source", src.Name()).Str("line", line).Msg("command failed")
	}
	return err
}

// Complete returns the completions for the last word of the partial line.
func (d *Dispatcher) Complete(src types.Source, line string) []string {
	args := tokenize(line)
	toComplete := ""
	if len(args) > 0 && !strings.HasSuffix(line, " ") {
		toComplete = args[len(args)-1]
		args = args[:len(args)-1]
	}

	root := d.newRoot(src)
	if len(args) == 0 {
		var verbs []string
		for _, c := range root.Commands() {
			if !c.Hidden {
				verbs = append(verbs, c.Name())
			}
		}
		return filterPrefix(verbs, toComplete)
	}
	if !isVerb(root, args[0]) {
		return nil
	}
	args[0] = strings.ToLower(args[0])

	cmd, rest, err := root.Find(args)
	if err != nil || cmd == root || cmd.ValidArgsFunction == nil {
		return nil
	}
	comps, _ := cmd.ValidArgsFunction(cmd, rest, toComplete)
	return comps
}

// ValidChoices returns the option keys src may currently set: the keys of
// its active masquerade. Empty for non-players and unmasked players.
func (d *Dispatcher) ValidChoices(src types.Source) []string {
	p, ok := src.Participant()
	if !ok {
		return nil
	}
	return d.registry.ValidChoices(p.UniqueID())
}

func (d *Dispatcher) newRoot(src types.Source) *cobra.Command {
	root := &cobra.Command{
		Use:           "masquerade",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true, Run: func(*cobra.Command, []string) {}})

	mask := d.newMaskCmd(src)
	mask.AddCommand(d.newOptionCmd(src))
	mask.AddCommand(d.newFallingBlockCmd(src))
	root.AddCommand(mask)
	root.AddCommand(d.newUnmaskCmd(src))
	return root
}

// Message turns a command error into the text shown to the invoker.
func Message(err error) string {
	switch {
	case errors.Is(err, types.ErrNotAPlayer):
		return "Only players can use this command."
	case errors.Is(err, types.ErrNotMasked):
		return "You are not currently masked."
	}
	return upperFirst(err.Error())
}

func tokenize(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/")
	return strings.Fields(line)
}

func isVerb(root *cobra.Command, arg string) bool {
	for _, c := range root.Commands() {
		if !c.Hidden && strings.EqualFold(c.Name(), arg) {
			return true
		}
	}
	return false
}

func filterPrefix(choices []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, c := range choices {
		if strings.HasPrefix(strings.ToLower(c), prefix) {
			out = append(out, c)
		}
	}
	return out
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// participant returns the live participant behind src, or ErrNotAPlayer.
func participant(src types.Source) (types.Participant, error) {
	p, ok := src.Participant()
	if !ok || p == nil {
		return nil, types.ErrNotAPlayer
	}
	return p, nil
}

// requirePerms checks every node against p and fails with ErrForbidden naming the
// first one missing.
func requirePerms(p types.Participant, what string, nodes ...string) error {
	for _, n := range nodes {
		if !p.HasPermission(n) {
			return fmt.Errorf("%w: you don't have permission to %s", types.ErrForbidden, what)
		}
	}
	return nil
}
