package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the masquerade release.
const Version = "0.3.0"

const modulePath = "github.com/mesh-intelligence/masquerade"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the masquerade version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "masquerade v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
