package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tickos/kernel"
)

func newSelftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Ping-pong two threads through Fork and Yield",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := kernel.New(kernel.Options{
				StackWords:        cfg.StackWords,
				InitialPrediction: cfg.InitialPrediction,
			})
			k.Bootstrap("main")
			k.SelfTest()
			fmt.Println(k.Stats.Summary())
			return nil
		},
	}
}
