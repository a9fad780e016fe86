package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/services"
	"github.com/dmitrijs2005/qryptovault/internal/cryptox"
)

// Upload sends the file at path to the backend, shared with recipients.
func (a *App) Upload(ctx context.Context, path string, recipients []string) error {
	rec, err := a.files.Upload(ctx, path, recipients)
	if err != nil {
		fmt.Fprintln(a.out, services.UserMessage(err))
		return err
	}
	fmt.Fprintln(a.out, services.UploadSuccessMessage(rec))
	return nil
}

// Download saves a file into dir, or the configured download directory
// when dir is empty.
func (a *App) Download(ctx context.Context, fileID, dir string) error {
	if dir == "" {
		dir = a.config.DownloadDir
	}
	path, err := a.files.Download(ctx, fileID, dir)
	if err != nil {
		fmt.Fprintln(a.out, services.UserMessage(err))
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

// History prints the files uploaded from this client, newest first.
func (a *App) History(ctx context.Context) error {
	recs, err := a.files.History(ctx)
	if err != nil {
		fmt.Fprintln(a.out, services.UserMessage(err))
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No uploads yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UPLOADED\tFILE ID\tNAME\tSHARED WITH\tSHA3")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.UploadedAt.Local().Format(models.TimestampLayout), r.FileID, r.FileName,
			strings.Join(r.SharedWith, ", "), cryptox.Fingerprint(r.Digest))
	}
	return tw.Flush()
}
