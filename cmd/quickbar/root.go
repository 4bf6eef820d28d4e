package main

import (
	"quickbar/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and what PersistentPreRunE builds from them.
type RootOptions struct {
	ConfigPath string

	Config *config.Config
	Log    *logrus.Logger
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quickbar",
		Short:         "Order taking for bars and clubs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			log.SetOutput(cmd.ErrOrStderr())
			opts.Config, opts.Log = cfg, log
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (environment variables override it)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewStatsWorkerCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewGrantCommand(opts))
	cmd.AddCommand(NewPasswdCommand(opts))

	return cmd
}
