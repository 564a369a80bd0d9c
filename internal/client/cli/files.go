package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/client/catalog"
	"github.com/dmitrijs2005/gophdrive/internal/client/upload"
)

type listOptions struct {
	Filter string
	Sort   string
	Desc   bool
	Output string
}

// newFileTask is a test seam for upload.NewFileTask.
var newFileTask = upload.NewFileTask

// List refreshes the catalog and prints the matching records.
func (a *App) List(ctx context.Context, opts listOptions) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	key, err := catalog.ParseSortKey(opts.Sort)
	if err != nil {
		return err
	}

	if err := a.catalog.Refresh(ctx); err != nil {
		return err
	}

	records := catalog.Sort(catalog.Filter(a.catalog.Records(), opts.Filter), key, opts.Desc)
	return writeRecords(a.out, records, opts.Output)
}

// Select adds local files to the pending upload set. Paths that cannot be
// read are reported and skipped. It returns how many tasks were added.
func (a *App) Select(ctx context.Context, paths []string) int {
	added := 0
	for _, p := range paths {
		t, err := newFileTask(p)
		if err != nil {
			a.log.Warn(ctx, "cannot select file", "path", p, "error", err)
			a.printf("Skipping %s: %v\n", p, err)
			continue
		}
		if !a.uploads.Add(t) {
			a.printf("%s is already selected\n", t.Name)
			continue
		}
		added++
	}
	return added
}

// SelectFiles is the shell form of Select.
func (a *App) SelectFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: select <path>...")
	}
	a.printf("%d file(s) selected\n", a.Select(ctx, paths))
	return nil
}

// Pending prints the upload set.
func (a *App) Pending(_ context.Context) error {
	return writeTasks(a.out, a.uploads.Tasks())
}

// Unselect removes pending tasks by their 1-based position in Pending or by
// task ID.
func (a *App) Unselect(_ context.Context, refs []string) error {
	if len(refs) == 0 {
		return errors.New("usage: unselect <#|id>...")
	}

	tasks := a.uploads.Tasks()
	for _, ref := range refs {
		id := ref
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
			id = tasks[n-1].ID
		}
		if !a.uploads.Remove(id) {
			a.printf("Cannot remove %s\n", ref)
			continue
		}
		a.printf("Removed %s\n", ref)
	}
	return nil
}

// Upload selects paths, if any, and uploads every pending file that is
// not done yet. An empty pending set only prints a warning.
func (a *App) Upload(ctx context.Context, paths []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.Select(ctx, paths)

	res, err := a.uploads.Run(ctx)
	if errors.Is(err, upload.ErrNothingToUpload) {
		a.println("No files to upload")
		return nil
	}
	if err != nil {
		return err
	}

	for _, msg := range res.Messages() {
		a.println(msg)
	}
	if res.RefreshErr != nil {
		a.printf("Warning: could not refresh file list: %s\n", userMessage(res.RefreshErr))
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", res.Failed, res.Failed+res.Succeeded)
	}
	return nil
}

// Download saves the referenced file in dir, or in the configured download
// directory when dir is empty.
func (a *App) Download(ctx context.Context, ref, dir string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if dir == "" {
		dir = a.config.DownloadDir()
	}

	rec, err := a.catalog.Find(ctx, ref)
	if err != nil {
		return err
	}

	path, contentType, err := a.catalog.Download(ctx, rec, dir)
	if err != nil {
		return err
	}
	a.printf("Saved %s to %s (%s)\n", rec.FileName, path, contentType)
	return nil
}

// Delete removes the referenced file after confirmation. assumeYes skips the
// question.
func (a *App) Delete(ctx context.Context, ref string, assumeYes bool) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	req, err := a.catalog.RequestDelete(ctx, ref)
	if err != nil {
		return err
	}

	confirmed := assumeYes
	if !confirmed {
		if confirmed, err = confirm(a.reader, req.Prompt(), a.out); err != nil {
			confirmed = false
		}
	}

	msg, err := req.Execute(ctx, confirmed)
	if errors.Is(err, catalog.ErrDeleteCancelled) {
		a.println("Cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	if strings.TrimSpace(msg) == "" {
		msg = "Deleted " + req.Record.FileName
	}
	a.println(msg)
	return nil
}

// Stats prints the counters of this process.
func (a *App) Stats(_ context.Context) error {
	return a.metrics.WriteSummary(a.out)
}
