package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/metrics"
	"github.com/dmitrijs2005/gophdrive/internal/netx"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNothingToUpload = errors.New("no files to upload")
	ErrBatchInProgress = errors.New("an upload batch is already running")
)

const (
	// MissingDataMessage is reported for tasks whose bytes cannot be read.
	MissingDataMessage = "file data is missing"
	// FallbackMessage is reported when a failure carries no better message.
	FallbackMessage = "upload failed"
)

// Uploader sends one file to the service.
type Uploader interface {
	Upload(ctx context.Context, fileName string, content io.Reader, progress netx.ProgressFunc) (string, error)
}

// Refresher reloads the remote file list after a batch.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Observer receives a snapshot of a task after each change.
type Observer func(Task)

// Result summarizes one batch.
type Result struct {
	Succeeded  int
	Failed     int
	RefreshErr error
}

// Messages are the user-facing batch summary lines.
func (r Result) Messages() []string {
	var out []string
	if r.Succeeded > 0 {
		out = append(out, fmt.Sprintf("%d file(s) uploaded", r.Succeeded))
	}
	if r.Failed > 0 {
		out = append(out, fmt.Sprintf("%d file(s) failed", r.Failed))
	}
	return out
}

type entry struct {
	task     Task
	removed  bool
	inFlight bool
}

type Option func(*Orchestrator)

// WithConcurrency sets how many uploads may be in flight. Values below 1
// mean 1.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator owns the pending tasks, in selection order.
type Orchestrator struct {
	uploader  Uploader
	refresher Refresher
	log       logging.Logger

	concurrency int
	observer    Observer
	metrics     *metrics.Metrics

	mu      sync.Mutex
	tasks   []*entry
	running bool
}

func NewOrchestrator(uploader Uploader, refresher Refresher, log logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uploader:    uploader,
		refresher:   refresher,
		log:         log.With("component", "upload"),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Add appends t to the pending set. It returns false when a task with the
// same ID is already pending.
func (o *Orchestrator) Add(t Task) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, e := range o.tasks {
		if e.task.ID == t.ID {
			return false
		}
	}
	t.Status = StatusSelected
	t.Percent = 0
	t.ErrorMessage = ""
	o.tasks = append(o.tasks, &entry{task: t})
	return true
}

// Remove drops a task that is selected or failed and whose upload call has
// not started. It reports whether the task was removed.
func (o *Orchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, e := range o.tasks {
		if e.task.ID != id {
			continue
		}
		if e.inFlight || (e.task.Status != StatusSelected && e.task.Status != StatusError) {
			return false
		}
		e.removed = true
		o.tasks = append(o.tasks[:i], o.tasks[i+1:]...)
		return true
	}
	return false
}

// Tasks returns snapshots of the pending tasks in selection order.
func (o *Orchestrator) Tasks() []Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Task, len(o.tasks))
	for i, e := range o.tasks {
		out[i] = e.task
	}
	return out
}

// Run uploads every selected or failed task, then refreshes the catalog
// once. Individual failures do not fail the batch; they are counted in the
// Result and left on the failed tasks.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	batch, err := o.begin()
	if err != nil {
		return Result{}, err
	}
	defer o.end()

	o.log.Info(ctx, "upload batch started", "files", len(batch), "concurrency", o.concurrency)

	var (
		resMu sync.Mutex
		res   Result
	)
	record := func(ok bool) {
		resMu.Lock()
		defer resMu.Unlock()
		if ok {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	if o.concurrency <= 1 {
		for _, e := range batch {
			if ok, ran := o.process(ctx, e); ran {
				record(ok)
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.concurrency)
		for _, e := range batch {
			g.Go(func() error {
				if ok, ran := o.process(ctx, e); ran {
					record(ok)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	o.settle(batch, res)

	if o.refresher != nil {
		if err := o.refresher.Refresh(ctx); err != nil {
			o.log.Warn(ctx, "catalog refresh after upload failed", "error", err)
			res.RefreshErr = err
		}
	}

	o.log.Info(ctx, "upload batch finished", "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

func (o *Orchestrator) begin() ([]*entry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, ErrBatchInProgress
	}

	var batch []*entry
	for _, e := range o.tasks {
		if e.task.Status == StatusSelected || e.task.Status == StatusError {
			batch = append(batch, e)
		}
	}
	if len(batch) == 0 {
		return nil, ErrNothingToUpload
	}

	o.running = true
	return batch, nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// settle applies the completion policy: with failures only the finished
// tasks of the batch leave the pending set; without failures the whole
// batch does.
func (o *Orchestrator) settle(batch []*entry, res Result) {
	if res.Failed == 0 && res.Succeeded == 0 {
		return
	}

	inBatch := make(map[*entry]bool, len(batch))
	for _, e := range batch {
		inBatch[e] = true
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.tasks[:0]
	for _, e := range o.tasks {
		drop := inBatch[e] && (res.Failed == 0 || e.task.Status == StatusDone)
		if !drop {
			kept = append(kept, e)
		}
	}
	clear(o.tasks[len(kept):])
	o.tasks = kept
}

// update applies fn to the task under the lock and notifies the observer
// with the resulting snapshot.
func (o *Orchestrator) update(e *entry, fn func(t *Task) bool) {
	o.mu.Lock()
	changed := fn(&e.task)
	snap := e.task
	o.mu.Unlock()

	if changed && o.observer != nil {
		o.observer(snap)
	}
}

func (o *Orchestrator) fail(ctx context.Context, e *entry, name, msg string, err error) {
	o.update(e, func(t *Task) bool {
		t.Status = StatusError
		t.ErrorMessage = msg
		return true
	})
	o.log.Warn(ctx, "upload failed", "file", name, "message", msg, "error", err)
	if o.metrics != nil {
		o.metrics.UploadsTotal.WithLabelValues(metrics.StatusError).Inc()
	}
}

// process uploads one task. ran is false when the task was removed before
// it started.
func (o *Orchestrator) process(ctx context.Context, e *entry) (ok, ran bool) {
	o.mu.Lock()
	if e.removed {
		o.mu.Unlock()
		return false, false
	}
	e.inFlight = true
	src, name, size := e.task.Source, e.task.Name, e.task.Size
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		e.inFlight = false
		o.mu.Unlock()
	}()

	if src == nil {
		o.fail(ctx, e, name, MissingDataMessage, nil)
		return false, true
	}
	rc, err := src.Open()
	if err != nil {
		o.fail(ctx, e, name, MissingDataMessage, err)
		return false, true
	}
	defer rc.Close()

	o.update(e, func(t *Task) bool {
		t.Status = StatusUploading
		t.Percent = 0
		t.ErrorMessage = ""
		return true
	})

	progress := func(sent, total int64) {
		if total <= 0 {
			return
		}
		p := int(math.Round(100 * float64(sent) / float64(total)))
		if p > 100 {
			p = 100
		}
		o.update(e, func(t *Task) bool {
			if t.Status != StatusUploading || p <= t.Percent {
				return false
			}
			t.Percent = p
			return true
		})
	}

	if _, err := o.uploader.Upload(ctx, name, rc, progress); err != nil {
		o.fail(ctx, e, name, client.Describe(err, FallbackMessage), err)
		return false, true
	}

	o.update(e, func(t *Task) bool {
		t.Status = StatusDone
		t.Percent = 100
		return true
	})
	o.log.Debug(ctx, "upload done", "file", name, "size", size)
	if o.metrics != nil {
		o.metrics.UploadsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
		o.metrics.UploadBytesTotal.Add(float64(size))
	}
	return true, true
}
