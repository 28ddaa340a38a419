package main

import (
	"fmt"
	"os"

	"github.com/RuiFG/statesync/config"
	"github.com/RuiFG/statesync/log"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

type cli struct {
	configPath  string
	application config.Application
}

func NewCommand() *cobra.Command {
	c := &cli{}
	command := &cobra.Command{
		Use:           "statesync",
		Short:         "keep a json state file synchronized with a durable key-value store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			application, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.application = application
			log.Setup(application.LogOptions().WithWriter(cmd.ErrOrStderr()))
			return nil
		},
	}
	command.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default ./application.yml or ./config/application.yml)")
	command.AddCommand(
		c.watchCommand(),
		c.dumpCommand(),
		c.getCommand(),
		&cobra.Command{ // versionCmd represents the version command
			Use:   "version",
			Short: "print version info",
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
			},
		},
	)
	return command
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		log.Global().Errorw("statesync failed", "err", err)
		_ = log.Global().Sync()
		os.Exit(1)
	}
}
