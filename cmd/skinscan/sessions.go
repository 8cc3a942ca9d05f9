package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oukeidos/skinscan/internal/logger"
	"github.com/oukeidos/skinscan/internal/recovery"
)

func newSessionsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect locally saved scan sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)

	openStore := func(cmd *cobra.Command) (*recovery.Store, error) {
		cfg, err := g.setup(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		dir, err := stateDir(cfg)
		if err != nil {
			return nil, err
		}
		return recovery.NewStore(dir), nil
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			states, skipped, err := store.List()
			if err != nil {
				return err
			}
			for _, name := range skipped {
				logger.Warn("Skipped unreadable session file", "file", name)
			}
			out := cmd.OutOrStdout()
			if len(states) == 0 {
				fmt.Fprintln(out, "No saved sessions.")
				return nil
			}
			for _, s := range states {
				fmt.Fprintf(out, "%s  %s  %d photo(s)\n", s.SessionID, s.ScanTimestamp.Local().Format(time.DateTime), len(s.ImageFileNames))
			}
			return nil
		},
		SilenceUsage: true,
	}

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the uploaded photos of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			s, err := store.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:  %s\nScanned:  %s\nPhotos:\n  %s\n",
				s.SessionID, s.ScanTimestamp.Local().Format(time.RFC3339), strings.Join(s.ImageFileNames, "\n  "))
			return nil
		},
		SilenceUsage: true,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Forget a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted.\n", args[0])
			return nil
		},
		SilenceUsage: true,
	}

	for _, sub := range []*cobra.Command{listCmd, showCmd, deleteCmd} {
		sub.SetUsageTemplate(subcommandUsageTemplate)
	}
	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}
