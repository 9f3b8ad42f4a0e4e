package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/euan-reid/story-server"

// Version is set at build time with -ldflags "-X".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the storyctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "storyctl %s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
