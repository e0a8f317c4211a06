package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masquerade/internal/engine"
	"github.com/mesh-intelligence/masquerade/internal/host"
	"github.com/mesh-intelligence/masquerade/pkg/types"
)

const consoleHelp = `commands:
  join <name>                 connect a player
  leave <name>                disconnect a player
  <name>: <command>           run a command as a player, e.g. "alice: mask zombie"
  console: <command>          run a command as the console
  complete <name> <partial>   list completions for a partial command line
  list                        show active masquerades
  quit                        end the session`

func newServeCmd(state *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run an interactive session console on stdin",
		Long:  "Run a session where players join, leave and issue mask commands, one line at a time.\n\n" + consoleHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			h, err := host.New(host.Options{
				CatalogPath:        state.cfg.CatalogPath,
				DefaultPermissions: state.cfg.DefaultPermissions,
				PlayerPermissions:  state.cfg.PlayerPermissions,
			}, cmd.OutOrStdout(), state.log)
			if err != nil {
				return systemErr("start session: %w", err)
			}
			runErr := runConsole(ctx, h, cmd.InOrStdin(), cmd.OutOrStdout())
			if err := h.Close(); err != nil && runErr == nil {
				runErr = systemErr("close session: %w", err)
			}
			return runErr
		},
	}
}

// runConsole reads console lines from in until EOF, quit, or ctx is done.
func runConsole(ctx context.Context, h *host.Host, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		// Trailing spaces are kept so "complete" can ask for the next word.
		raw := strings.TrimLeft(strings.TrimRight(scanner.Text(), "\r"), " \t")
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		handleLine(h, raw, out)
	}
	if err := scanner.Err(); err != nil {
		return systemErr("read console: %w", err)
	}
	return nil
}

func handleLine(h *host.Host, line string, out io.Writer) {
	if name, rest, ok := strings.Cut(line, ":"); ok && !strings.ContainsAny(name, " \t") {
		runAs(h, strings.ToLower(name), strings.TrimSpace(rest), out)
		return
	}

	verb, rest, _ := strings.Cut(line, " ")
	switch strings.TrimSpace(verb) {
	case "join":
		name := strings.TrimSpace(rest)
		if _, err := h.Session.Connect(name); err != nil {
			fmt.Fprintf(out, "join: %v\n", err)
		}
	case "leave":
		name := strings.TrimSpace(rest)
		if !h.Session.Disconnect(name) {
			fmt.Fprintf(out, "leave: %s is not online\n", name)
		}
	case "complete":
		name, partial, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
		src, ok := lookupSource(h, name)
		if !ok {
			fmt.Fprintf(out, "complete: %s is not online\n", name)
			return
		}
		choices := h.Dispatcher.Complete(src, partial)
		if len(choices) == 0 {
			fmt.Fprintln(out, "(no completions)")
			return
		}
		fmt.Fprintln(out, strings.Join(choices, " "))
	case "list":
		for _, entry := range listMasquerades(h) {
			fmt.Fprintln(out, entry)
		}
	case "help":
		fmt.Fprintln(out, consoleHelp)
	default:
		fmt.Fprintf(out, "unknown input %q (try help)\n", strings.TrimSpace(line))
	}
}

func runAs(h *host.Host, name, commandLine string, out io.Writer) {
	src, ok := lookupSource(h, name)
	if !ok {
		fmt.Fprintf(out, "%s is not online\n", name)
		return
	}
	// Execute reports failures to src itself.
	h.Dispatcher.Execute(src, commandLine)
}

func lookupSource(h *host.Host, name string) (types.Source, bool) {
	if strings.EqualFold(name, "console") {
		return h.Session.Console(), true
	}
	p, ok := h.Session.Player(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// listMasquerades describes each active masquerade as "name: entity",
// sorted by name.
func listMasquerades(h *host.Host) []string {
	var entries []string
	h.Registry.ForEach(func(owner uuid.UUID, m types.Masquerade) {
		entries = append(entries, describe(owner.String(), m))
	})
	if len(entries) == 0 {
		return []string{"(no active masquerades)"}
	}
	sort.Strings(entries)
	return entries
}

func describe(fallback string, m types.Masquerade) string {
	em, ok := m.(*engine.Masquerade)
	if !ok {
		return fallback + ": masked"
	}
	return em.Owner().Name() + ": " + em.Entity().ID
}
