package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFoldersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "folders",
		GroupID: groupDocuments,
		Short:   "List folders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			folders, err := a.sess.ctrl.Folders()
			if err != nil {
				return err
			}
			return a.printFolders(cmd.OutOrStdout(), folders)
		},
	}
}

func newRenameFolderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rename-folder <id> <name>",
		GroupID: groupDocuments,
		Short:   "Rename a folder (local only)",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.sess.ctrl.RenameFolder(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s renamed to %q\n", f.ID, f.Name)
			return nil
		},
	}
}

func newLogsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "logs",
		GroupID: groupDocuments,
		Short:   "Show the audit trail, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logs, err := a.sess.ctrl.AuditLogs()
			if err != nil {
				return err
			}
			if limit > 0 && len(logs) > limit {
				logs = logs[:limit]
			}
			return a.printLogs(cmd.OutOrStdout(), logs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many entries (0 for all)")
	return cmd
}
