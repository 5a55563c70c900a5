package main

import (
	"github.com/spf13/cobra"

	"documind/internal/config"
)

// app carries flag values and the open session between the root hooks and
// the subcommands.
type app struct {
	cfg     *config.ClientConfig
	offline bool
	json    bool
	sess    *session
}

// newRootCmd builds the command tree. Callers must call closeSession on the
// returned app after Execute, since cobra skips post-run hooks on error.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{cfg: config.LoadClient()}

	root := &cobra.Command{
		Use:           "documind",
		Short:         "Offline-first document manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `DocuMind keeps documents, folders, audit logs and users in a local database
and mirrors changes to the bridge API when it is reachable.

Local writes always commit first; remote failures never undo them.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsSession(cmd) {
				return nil
			}
			s, err := openSession(cmd.Context(), a.cfg, a.offline)
			if err != nil {
				return err
			}
			a.sess = s
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.closeSession()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.DataDir, "data-dir", a.cfg.DataDir, "directory holding the local database")
	pf.StringVar(&a.cfg.RemoteURL, "remote", a.cfg.RemoteURL, "bridge API base URL (empty disables sync)")
	pf.StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "log level: debug, info, warn, error")
	pf.StringVar(&a.cfg.Log.File, "log-file", a.cfg.Log.File, "rotate logs into this file instead of stderr")
	pf.BoolVar(&a.offline, "offline", false, "skip the connectivity probe and work offline")
	pf.BoolVar(&a.json, "json", false, "print JSON instead of tables")

	root.AddGroup(
		&cobra.Group{ID: groupDocuments, Title: "Documents:"},
		&cobra.Group{ID: groupSync, Title: "Sync:"},
		&cobra.Group{ID: groupAccount, Title: "Accounts:"},
	)

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newStarCmd(a),
		newTrashCmd(a),
		newRenameCmd(a),
		newUploadCmd(a),
		newFoldersCmd(a),
		newRenameFolderCmd(a),
		newLogsCmd(a),
		newStatusCmd(a),
		newSyncCmd(a),
		newWatchCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newUsersCmd(a),
	)
	return root, a
}

func (a *app) closeSession() error {
	if a.sess == nil {
		return nil
	}
	err := a.sess.Close()
	a.sess = nil
	return err
}

const (
	groupDocuments = "documents"
	groupSync      = "sync"
	groupAccount   = "account"
)

// needsSession is false for cobra's built-in help and completion commands.
func needsSession(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}
