package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"filex/internal/constants"
)

func NewStateCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and repair persisted state files",
	}
	cmd.AddCommand(newStateListCmd(rt))
	cmd.AddCommand(newStateBackupsCmd(rt))
	cmd.AddCommand(newStateShowCmd(rt))
	cmd.AddCommand(newStateRestoreCmd(rt))
	cmd.AddCommand(newStateRemoveCmd(rt))
	return cmd
}

// stateKey returns args[0] or the application state key
func stateKey(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return constants.AppStateKey
}

func newStateListCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List state files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := rt.Persistence()
			if err != nil {
				return err
			}
			keys, err := pm.ListStateFiles()
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No state files in %s\n", pm.StateDir())
				return nil
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newStateBackupsCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backups [key]",
		Short: "List backups of a state file, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := rt.Persistence()
			if err != nil {
				return err
			}
			backups, err := pm.ListBackups(stateKey(args))
			if err != nil {
				return err
			}
			for _, b := range backups {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Base(b))
			}
			return nil
		},
	}
}

func newStateShowCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Print a state file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := rt.Persistence()
			if err != nil {
				return err
			}
			var raw json.RawMessage
			if err := pm.Load(stateKey(args), &raw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
}

func newStateRestoreCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [key]",
		Short: "Replace a state file with its newest backup",
		Long: `Replace a state file with its newest backup.

The current file is itself backed up before being replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := rt.Persistence()
			if err != nil {
				return err
			}
			key := stateKey(args)
			var raw json.RawMessage
			if err := pm.RestoreFromBackup(key, &raw); err != nil {
				return err
			}
			if err := pm.Save(key, raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", key)
			return nil
		},
	}
}

func newStateRemoveCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>",
		Aliases: []string{"delete"},
		Short:   "Delete a state file; backups are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := rt.Persistence()
			if err != nil {
				return err
			}
			return pm.DeleteState(args[0])
		},
	}
}
