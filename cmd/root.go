package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"filex/internal/constants"
	"filex/internal/logging"
)

// newLogger is replaced in tests
var newLogger = logging.New

// NewRootCmd builds the filex command tree around rt
func NewRootCmd(rt *Runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           constants.ApplicationName,
		Short:         "Browse directories and manage the saved browsing session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&rt.ConfigPath, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&rt.Debug, "debug", "d", false, "Enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// This runs once before any subcommand
		return rt.Load()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rt.Logger != nil {
			rt.Logger.Debug("command finished", zap.String("command", cmd.CommandPath()))
		}
		rt.Close()
	}

	rootCmd.AddCommand(NewListCmd(rt))
	rootCmd.AddCommand(NewInfoCmd(rt))
	rootCmd.AddCommand(NewTabCmd(rt))
	rootCmd.AddCommand(NewStateCmd(rt))
	rootCmd.AddCommand(NewConfigCmd(rt))
	return rootCmd
}
