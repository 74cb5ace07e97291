package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	log      = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:           "sablec",
	Short:         "sablec compiles WebAssembly modules to a native lowering plan",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level (panic, fatal, error, warn, info, debug, trace)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
