package cmd

import (
	"fmt"
	"os"

	"Zenith/config"
	"Zenith/logger"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "zenith",
	Short: "Zenith is a music player with a detachable mini player.",
	Long: `Zenith plays your cloud library and local files.
Run "zenith bridge" once, then any number of "zenith player" and "zenith mini"
surfaces stay in step through it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.DefaultConfig(cfg.LogLevel, cfg.LogFile, cmd.Name()))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
