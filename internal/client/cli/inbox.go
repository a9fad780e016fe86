package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
)

// Inbox prints the inbox preview, or every entry when all is set.
func (a *App) Inbox(_ context.Context, all bool) error {
	view := a.inbox.Preview()
	if view.Empty {
		fmt.Fprintln(a.out, view.EmptyText)
		return nil
	}

	entries := view.Entries
	if all {
		entries = a.inbox.Entries()
	}
	if err := printEntries(a.out, entries); err != nil {
		return err
	}
	if len(entries) < view.Total {
		fmt.Fprintf(a.out, "Showing %d of %d (use 'inbox all' to list everything)\n", len(entries), view.Total)
	}
	return nil
}

// Status prints who is logged in, the push channel state and the backend.
func (a *App) Status(ctx context.Context) error {
	user := "not logged in"
	if id, err := a.session.CurrentUser(ctx); err == nil {
		user = id.Username
	}
	fmt.Fprintf(a.out, "User:   %s\nInbox:  %s\nServer: %s\n", user, a.inbox.State(), a.config.ServerURL)
	return nil
}

func printEntries(w io.Writer, entries []models.InboxEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tDATE\tFILE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Sender, e.Timestamp, e.FileName)
	}
	return tw.Flush()
}
