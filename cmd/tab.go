package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apperrors "filex/internal/errors"
	"filex/internal/session"
	"filex/internal/state"
)

func NewTabCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tab",
		Short: "Manage the tabs of the saved session",
		Long: `Manage the tabs of the saved session.

Tabs are referenced by ID or by 1-based position as shown by "filex tab list".`,
	}
	cmd.AddCommand(newTabListCmd(rt))
	cmd.AddCommand(newTabOpenCmd(rt))
	cmd.AddCommand(newTabCloseCmd(rt))
	cmd.AddCommand(newTabActivateCmd(rt))
	cmd.AddCommand(newTabCdCmd(rt))
	cmd.AddCommand(newTabUpCmd(rt))
	return cmd
}

// withSession opens the session, runs fn and saves on the way out
func withSession(rt *Runtime, fn func(s *session.Session) error) (err error) {
	s, err := rt.OpenSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("save session: %w", cerr)
		}
	}()
	return fn(s)
}

// resolveTab accepts a tab ID or a 1-based position
func resolveTab(s *session.Session, ref string) (state.TabState, error) {
	if tab, ok := s.Store().Tab(ref); ok {
		return tab, nil
	}
	tabs := s.Store().GetState().Tabs
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tabs) {
		return tabs[n-1], nil
	}
	return state.TabState{}, apperrors.NewNotFoundError("resolve_tab", ref, "tab not found")
}

func printTabs(cmd *cobra.Command, s *session.Session) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tACTIVE\tNAME\tPATH\tID")
	for i, t := range s.Store().GetState().Tabs {
		active := ""
		if t.Active {
			active = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, active, t.Name, t.CurrentPath, t.ID)
	}
	w.Flush()
}

func newTabListCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tabs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rt, func(s *session.Session) error {
				printTabs(cmd, s)
				return nil
			})
		},
	}
}

func newTabOpenCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "open [path]",
		Short: "Open a tab and make it active",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := targetPath(args)
			if err != nil {
				return err
			}
			return withSession(rt, func(s *session.Session) error {
				tab, err := s.OpenTab(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Opened %s (%s)\n", tab.Name, tab.ID)
				return nil
			})
		},
	}
}

func newTabCloseCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "close <tab>",
		Short: "Close a tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rt, func(s *session.Session) error {
				tab, err := resolveTab(s, args[0])
				if err != nil {
					return err
				}
				if err := s.CloseTab(tab.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Closed %s\n", tab.Name)
				return nil
			})
		},
	}
}

func newTabActivateCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <tab>",
		Short: "Make a tab the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rt, func(s *session.Session) error {
				tab, err := resolveTab(s, args[0])
				if err != nil {
					return err
				}
				return s.Store().SetActiveTab(tab.ID)
			})
		},
	}
}

func newTabCdCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cd <tab> <path>",
		Short: "Navigate a tab to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := targetPath(args[1:])
			if err != nil {
				return err
			}
			return withSession(rt, func(s *session.Session) error {
				tab, err := resolveTab(s, args[0])
				if err != nil {
					return err
				}
				c, err := s.Controller(tab.ID)
				if err != nil {
					return err
				}
				if err := c.NavigateTo(path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.CurrentPath())
				return nil
			})
		},
	}
}

func newTabUpCmd(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "up <tab>",
		Short: "Navigate a tab to its parent directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rt, func(s *session.Session) error {
				tab, err := resolveTab(s, args[0])
				if err != nil {
					return err
				}
				c, err := s.Controller(tab.ID)
				if err != nil {
					return err
				}
				if err := c.NavigateUp(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.CurrentPath())
				return nil
			})
		},
	}
}
