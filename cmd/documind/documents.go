package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"documind/internal/model"
	"documind/internal/state"
	docsync "documind/internal/sync"
)

func newListCmd(a *app) *cobra.Command {
	var f state.Filter
	var view string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		GroupID: groupDocuments,
		Short:   "List documents",
		Long: `List documents in one of three views:
  all      every document not in the trash (default, --folder applies)
  starred  starred documents not in the trash
  trash    trashed documents only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch state.View(view) {
			case state.ViewAll, state.ViewStarred, state.ViewTrash:
				f.View = state.View(view)
			default:
				return fmt.Errorf("unknown view %q", view)
			}
			docs, err := a.sess.ctrl.Documents(f)
			if err != nil {
				return err
			}
			return a.printDocuments(cmd.OutOrStdout(), docs)
		},
	}
	cmd.Flags().StringVar(&view, "view", string(state.ViewAll), "all, starred or trash")
	cmd.Flags().StringVar(&f.FolderID, "folder", "", "only documents in this folder")
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "match name, contract number or tags")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		GroupID: groupDocuments,
		Short:   "Show a document and its version history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.sess.ctrl.Document(args[0])
			if err != nil {
				return err
			}
			return a.printDocument(cmd.OutOrStdout(), d)
		},
	}
}

func newStarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "star <id>",
		GroupID: groupDocuments,
		Short:   "Toggle the starred flag",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.sess.ctrl.ToggleStar(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), d)
			}
			label := "unstarred"
			if d.IsStarred {
				label = "starred"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", d.ID, label)
			return nil
		},
	}
}

func newTrashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "trash <id>",
		GroupID: groupDocuments,
		Short:   "Move a document to the trash",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.sess.ctrl.MoveToTrash(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s moved to trash\n", d.ID)
			return nil
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <id> <name>",
		GroupID: groupDocuments,
		Short:   "Rename a document (local only)",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.sess.ctrl.RenameDocument(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s renamed to %q\n", d.ID, d.Name)
			return nil
		},
	}
}

func newUploadCmd(a *app) *cobra.Command {
	var (
		folder   string
		name     string
		contract string
	)
	cmd := &cobra.Command{
		Use:     "upload <file>...",
		GroupID: groupDocuments,
		Short:   "Create one document per file",
		Long: `Create one document per file. The documents are saved locally first and
then registered with the bridge API when online. A failed remote
registration keeps the local documents and is reported as a warning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := state.UploadRequest{Name: name, ContractNumber: contract}
			if folder != "" {
				req.FolderID = model.String(folder)
			}

			for _, p := range args {
				f, err := os.Open(p)
				if err != nil {
					return err
				}
				defer f.Close()
				st, err := f.Stat()
				if err != nil {
					return err
				}
				if st.IsDir() {
					return fmt.Errorf("%s is a directory", p)
				}
				req.Files = append(req.Files, state.UploadFile{
					Name:        filepath.Base(p),
					Size:        st.Size(),
					ContentType: contentType(p),
					Content:     f,
				})
			}

			docs, err := a.sess.ctrl.Upload(cmd.Context(), req)
			if err != nil && !errors.Is(err, docsync.ErrRemoteWrite) {
				return err
			}
			if perr := a.printDocuments(cmd.OutOrStdout(), docs); perr != nil {
				return perr
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: saved locally, remote registration failed: %v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "target folder id")
	cmd.Flags().StringVar(&name, "name", "", "display name for every created document")
	cmd.Flags().StringVar(&contract, "contract", "", "contract number")
	return cmd
}

func contentType(path string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
