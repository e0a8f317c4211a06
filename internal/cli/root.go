// Package cli implements the masquerade command-line interface: config
// bootstrapping, catalog inspection, and an interactive session console.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masquerade/internal/config"
	"github.com/mesh-intelligence/masquerade/internal/logging"
	"github.com/mesh-intelligence/masquerade/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	jsonMode  bool
}

// runtimeState is filled by the root PersistentPreRunE.
type runtimeState struct {
	configDir string
	cfg       config.Config
	log       zerolog.Logger
}

// sysError marks failures of the environment rather than of user input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func systemErr(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "masquerade" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	var (
		flags rootFlags
		state runtimeState
	)

	root := &cobra.Command{
		Use:   "masquerade",
		Short: "Disguise session players as other entities",
		Long: "masquerade runs a multiplayer session console where players can take on\n" +
			"the appearance of other entities and change the disguise's options.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			dir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return systemErr("resolve config dir: %w", err)
			}
			cfg, err := config.Load(dir)
			if err != nil {
				return systemErr("load config: %w", err)
			}
			cfg.Normalize()
			state.configDir = dir
			state.cfg = cfg
			state.log = logging.New("masquerade", cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/masquerade)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(&state))
	root.AddCommand(newCatalogCmd(&state, &flags))
	root.AddCommand(newServeCmd(&state))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
