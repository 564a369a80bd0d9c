package catalog

import (
	"context"
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
)

// maxNameAttempts bounds retries when a chosen file name is taken between
// the existence check and the create.
const maxNameAttempts = 5

// Download fetches rec and saves it in dir under its original name. An
// existing file is never overwritten; a numbered name is chosen instead.
// It returns the written path and the content type.
func (c *Catalog) Download(ctx context.Context, rec models.FileRecord, dir string) (string, string, error) {
	d, err := c.gw.Download(ctx, rec.StoredFileName)
	if err != nil {
		return "", "", err
	}

	dir, err = filex.EnsureDir(dir)
	if err != nil {
		return "", "", err
	}

	var path string
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		path, err = filex.UniquePath(dir, rec.FileName)
		if err != nil {
			return "", "", err
		}
		err = filex.WriteFile(path, d.Data)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", "", err
	}

	ct := d.ContentType
	if ct == "" {
		ct = common.DefaultContentType
	}
	c.log.Info(ctx, "file downloaded", "file", rec.FileName, "path", path, "bytes", len(d.Data))
	return path, ct, nil
}
