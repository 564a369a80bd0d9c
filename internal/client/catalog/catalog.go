// Package catalog mirrors the remote file list and implements the
// operations on it: lookup, filtering, sorting, download and a two-phase
// delete.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/metrics"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrRecordNotFound = errors.New("file not found in catalog")

// Gateway is the subset of the storage API the catalog needs.
type Gateway interface {
	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	Download(ctx context.Context, storedFileName string) (*models.Download, error)
	Delete(ctx context.Context, storedFileName string) (string, error)
}

// DefaultTTL bounds how long a lookup index entry is trusted.
const DefaultTTL = time.Minute

type Option func(*Catalog)

// WithTTL sets the lookup index lifetime. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) { c.ttl = ttl }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

type Catalog struct {
	gw      Gateway
	log     logging.Logger
	metrics *metrics.Metrics
	ttl     time.Duration

	mu      sync.RWMutex
	records []models.FileRecord
	index   *expirable.LRU[string, models.FileRecord]

	delMu    sync.Mutex
	pending  *DeleteRequest
	deleting *models.FileRecord
}

func New(gw Gateway, log logging.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		gw:  gw,
		log: log.With("component", "catalog"),
		ttl: DefaultTTL,
	}
	for _, o := range opts {
		o(c)
	}
	c.index = expirable.NewLRU[string, models.FileRecord](0, nil, c.ttl)
	return c
}

func idKey(id int64) string       { return "id:" + strconv.FormatInt(id, 10) }
func storedKey(name string) string { return "stored:" + name }

// Refresh replaces the local list with the remote one. On failure the
// previous list is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	files, err := c.gw.ListFiles(ctx)
	if c.metrics != nil {
		c.metrics.CatalogRefreshTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}
	if err != nil {
		c.log.Warn(ctx, "catalog refresh failed", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append([]models.FileRecord(nil), files...)
	c.index.Purge()
	for _, f := range c.records {
		c.index.Add(idKey(f.ID), f)
		c.index.Add(storedKey(f.StoredFileName), f)
	}
	c.log.Debug(ctx, "catalog refreshed", "files", len(files))
	return nil
}

// Records returns a copy of the last fetched list.
func (c *Catalog) Records() []models.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.FileRecord(nil), c.records...)
}

// Filter returns the records whose file name contains term, ignoring case.
func (c *Catalog) Filter(term string) []models.FileRecord {
	return Filter(c.Records(), term)
}

func (c *Catalog) lookup(ref string) (models.FileRecord, bool) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if rec, ok := c.index.Get(idKey(id)); ok {
			return rec, true
		}
	}
	return c.index.Get(storedKey(ref))
}

// Find resolves ref, a numeric id or a stored file name. An index miss,
// including an expired entry, triggers one refresh before giving up.
func (c *Catalog) Find(ctx context.Context, ref string) (models.FileRecord, error) {
	if rec, ok := c.lookup(ref); ok {
		return rec, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return models.FileRecord{}, err
	}
	if rec, ok := c.lookup(ref); ok {
		return rec, nil
	}
	return models.FileRecord{}, ErrRecordNotFound
}
