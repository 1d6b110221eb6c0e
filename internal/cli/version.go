package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildVersion is set at link time with -ldflags "-X ...cli.BuildVersion=...".
var BuildVersion = "0.0.0"

// Version prints the binary version.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BuildVersion)
		},
	}
}
