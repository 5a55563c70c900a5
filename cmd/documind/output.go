package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"documind/internal/model"
)

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func flags(d model.Document) string {
	var f []string
	if d.IsStarred {
		f = append(f, "starred")
	}
	if d.IsTrashed {
		f = append(f, "trashed")
	}
	return strings.Join(f, ",")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (a *app) printDocuments(w io.Writer, docs []model.Document) error {
	if a.json {
		return a.printJSON(w, docs)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tFOLDER\tVERSION\tSIZE\tMODIFIED\tFLAGS")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\tv%d\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Type, deref(d.FolderID), d.CurrentVersion, d.Size,
			d.LastModified.Format(time.DateTime), flags(d))
	}
	return tw.Flush()
}

func (a *app) printDocument(w io.Writer, d model.Document) error {
	if a.json {
		return a.printJSON(w, d)
	}
	fmt.Fprintf(w, "%s  %s\n", d.ID, d.Name)
	fmt.Fprintf(w, "  type:      %s\n", d.Type)
	fmt.Fprintf(w, "  owner:     %s\n", d.OwnerID)
	fmt.Fprintf(w, "  folder:    %s\n", deref(d.FolderID))
	if d.ContractNumber != "" {
		fmt.Fprintf(w, "  contract:  %s\n", d.ContractNumber)
	}
	fmt.Fprintf(w, "  size:      %s\n", d.Size)
	fmt.Fprintf(w, "  modified:  %s\n", d.LastModified.Format(time.RFC3339))
	if len(d.Tags) > 0 {
		fmt.Fprintf(w, "  tags:      %s\n", strings.Join(d.Tags, ", "))
	}
	if f := flags(d); f != "" {
		fmt.Fprintf(w, "  flags:     %s\n", f)
	}
	fmt.Fprintf(w, "  versions:  %d\n", d.CurrentVersion)
	for _, v := range d.Versions {
		fmt.Fprintf(w, "    v%d  %s  %-8s  %s  %s\n",
			v.VersionNumber, v.UpdatedAt.Format(time.DateTime), v.Size, v.Author, v.ChangeNote)
	}
	return nil
}

func (a *app) printFolders(w io.Writer, folders []model.Folder) error {
	if a.json {
		return a.printJSON(w, folders)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPARENT\tCREATED")
	for _, f := range folders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, deref(f.ParentID), f.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}

func (a *app) printLogs(w io.Writer, logs []model.AuditLog) error {
	if a.json {
		return a.printJSON(w, logs)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tACTION\tDOCUMENT\tUSER")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\n", l.Timestamp.Format(time.DateTime), l.Action, l.DocName, l.DocID, l.User)
	}
	return tw.Flush()
}

func (a *app) printUsers(w io.Writer, users []model.User) error {
	if a.json {
		return a.printJSON(w, users)
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.Status)
	}
	return tw.Flush()
}
