package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/metrics"
)

var (
	ErrDeleteCancelled  = errors.New("delete cancelled")
	ErrDeleteInProgress = errors.New("another delete is in progress")
	ErrRequestClosed    = errors.New("delete request already executed")
)

// DeleteError carries the user-facing message of a failed delete.
type DeleteError struct {
	Record  models.FileRecord
	Message string
	Err     error
}

func (e *DeleteError) Error() string { return e.Message }
func (e *DeleteError) Unwrap() error { return e.Err }

// DeleteRequest is the first phase of a delete: the record is resolved and
// reserved, awaiting confirmation.
type DeleteRequest struct {
	c      *Catalog
	Record models.FileRecord
	closed bool
}

// Prompt is the confirmation question shown to the user.
func (r *DeleteRequest) Prompt() string {
	return fmt.Sprintf("Are you sure you want to delete %q?", r.Record.FileName)
}

// RequestDelete resolves ref and reserves the catalog's single delete slot
// until Execute is called.
func (c *Catalog) RequestDelete(ctx context.Context, ref string) (*DeleteRequest, error) {
	c.delMu.Lock()
	if c.pending != nil {
		c.delMu.Unlock()
		return nil, ErrDeleteInProgress
	}
	req := &DeleteRequest{c: c}
	c.pending = req
	c.delMu.Unlock()

	rec, err := c.Find(ctx, ref)
	if err != nil {
		c.release(req)
		return nil, err
	}
	req.Record = rec
	return req, nil
}

func (c *Catalog) release(req *DeleteRequest) {
	c.delMu.Lock()
	defer c.delMu.Unlock()
	if c.pending == req {
		c.pending = nil
		c.deleting = nil
	}
	req.closed = true
}

// Deleting returns the record whose delete call is in flight, if any.
func (c *Catalog) Deleting() (models.FileRecord, bool) {
	c.delMu.Lock()
	defer c.delMu.Unlock()
	if c.deleting == nil {
		return models.FileRecord{}, false
	}
	return *c.deleting, true
}

// Execute completes the request. Without confirmation nothing is sent and
// ErrDeleteCancelled is returned. On success the catalog is refreshed and
// the service message returned.
func (r *DeleteRequest) Execute(ctx context.Context, confirmed bool) (string, error) {
	c := r.c

	c.delMu.Lock()
	if r.closed || c.pending != r {
		c.delMu.Unlock()
		return "", ErrRequestClosed
	}
	if confirmed {
		rec := r.Record
		c.deleting = &rec
	}
	c.delMu.Unlock()

	if !confirmed {
		c.release(r)
		return "", ErrDeleteCancelled
	}

	msg, err := c.gw.Delete(ctx, r.Record.StoredFileName)
	c.release(r)
	if c.metrics != nil {
		c.metrics.DeletesTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		c.log.Warn(ctx, "delete failed", "file", r.Record.FileName, "error", err)
		return "", &DeleteError{
			Record:  r.Record,
			Message: client.Describe(err, "could not delete "+r.Record.FileName),
			Err:     err,
		}
	}

	c.log.Info(ctx, "file deleted", "file", r.Record.FileName, "stored", r.Record.StoredFileName)
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn(ctx, "catalog refresh after delete failed", "error", err)
	}
	return msg, nil
}
