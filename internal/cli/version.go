package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"tickos/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tickos %s (%s, %s) %s\n",
				buildinfo.Short(), buildinfo.Commit, buildinfo.Date, runtime.Version())
		},
	}
}
