package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"documind/internal/localstore"
	docsync "documind/internal/sync"
)

type statusReport struct {
	Online        bool                           `json:"online"`
	Remote        string                         `json:"remote"`
	Database      string                         `json:"database"`
	SchemaVersion int                            `json:"schemaVersion"`
	Counts        map[string]int                 `json:"counts"`
	User          string                         `json:"user,omitempty"`
	LastOutcomes  map[docsync.Op]docsync.Outcome `json:"lastOutcomes,omitempty"`
}

var syncOps = []docsync.Op{docsync.OpPull, docsync.OpPushCreate, docsync.OpPushStatus}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: groupSync,
		Short:   "Show connectivity, local store and session state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := a.sess

			rep := statusReport{
				Online:       s.ctrl.Online(),
				Remote:       s.cfg.RemoteURL,
				Database:     s.store.Path(),
				Counts:       map[string]int{},
				LastOutcomes: map[docsync.Op]docsync.Outcome{},
			}
			v, err := s.store.Version(ctx)
			if err != nil {
				return err
			}
			rep.SchemaVersion = v
			for _, c := range localstore.Collections {
				n, err := s.store.Count(ctx, c)
				if err != nil {
					return err
				}
				rep.Counts[string(c)] = n
			}
			if u, ok := s.ctrl.CurrentUser(); ok {
				rep.User = u.Email
			}
			for _, op := range syncOps {
				if out, ok := s.ctrl.SyncStatus(op); ok {
					rep.LastOutcomes[op] = out
				}
			}

			if a.json {
				return a.printJSON(cmd.OutOrStdout(), rep)
			}
			w := cmd.OutOrStdout()
			mode := "offline"
			if rep.Online {
				mode = "online"
			}
			fmt.Fprintf(w, "Mode:      %s (%s)\n", mode, rep.Remote)
			fmt.Fprintf(w, "Database:  %s (schema v%d)\n", rep.Database, rep.SchemaVersion)
			for _, c := range localstore.Collections {
				fmt.Fprintf(w, "  %-10s %d\n", c, rep.Counts[string(c)])
			}
			if rep.User != "" {
				fmt.Fprintf(w, "User:      %s\n", rep.User)
			} else {
				fmt.Fprintln(w, "User:      not logged in")
			}
			for _, op := range syncOps {
				if out, ok := rep.LastOutcomes[op]; ok {
					fmt.Fprintf(w, "Last %s: %s\n", op, describeOutcome(out))
				}
			}
			return nil
		},
	}
}

func describeOutcome(o docsync.Outcome) string {
	switch o.Status {
	case docsync.StatusOK:
		if o.Op == docsync.OpPull {
			return fmt.Sprintf("ok, fetched %d (%d new, %d replaced, %d rejected)", o.Fetched, o.Inserted, o.Replaced, o.Rejected)
		}
		return "ok"
	case docsync.StatusSkipped:
		return "skipped (offline)"
	default:
		return "failed: " + o.Error
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		GroupID: groupSync,
		Short:   "Pull the remote document list and merge it locally",
		Long: `Pull the remote document list and merge it into the local store.

The merge never deletes: remote documents replace local ones with the same
id and new ones are added at the top. Changes made while offline are not
pushed retroactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.sess.ctrl.Resync(cmd.Context())
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pull %s\n", describeOutcome(out))
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: groupSync,
		Short:   "Report connectivity changes until interrupted",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.sess
			w := cmd.OutOrStdout()

			cancel := s.monitor.Subscribe(func(online bool) {
				mode := "offline"
				if online {
					mode = "online"
				}
				fmt.Fprintf(w, "%s  %s\n", time.Now().Format(time.DateTime), mode)
			})
			defer cancel()

			fmt.Fprintf(w, "Watching %s every %s (online=%t)\n", s.cfg.RemoteURL, interval, s.monitor.Online())
			s.monitor.Watch(cmd.Context(), s.probe, interval)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", a.cfg.ProbeInterval, "probe interval")
	return cmd
}
