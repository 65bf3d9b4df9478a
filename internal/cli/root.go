// Package cli implements the tickos command line.
package cli

import (
	"github.com/spf13/cobra"

	"tickos/internal/config"
	"tickos/internal/debug"
)

var (
	flagConfig    string
	flagDebugTags string
	flagLogFormat string

	cfg config.Config
)

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tickos",
		Short: "tickos — a preemptive SRTF thread kernel on a simulated machine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				return err
			}
			if flagDebugTags != "" {
				cfg.DebugTags = flagDebugTags
			}
			if flagLogFormat != "" {
				cfg.LogFormat = flagLogFormat
			}
			debug.Init(cfg.DebugTags, cfg.LogFormat)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML machine config")
	root.PersistentFlags().StringVar(&flagDebugTags, "debug", "", "Debug tag set, e.g. \"zt\" (\"+\" for all)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newSelftestCmd(),
		newVersionCmd(),
	)

	return root
}
