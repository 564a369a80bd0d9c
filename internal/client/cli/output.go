package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/catalog"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/client/upload"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by the list command.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

func writeRecords(w io.Writer, records []models.FileRecord, format string) error {
	switch format {
	case "", OutputTable:
		return writeTable(w, records)
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeTable(w io.Writer, records []models.FileRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No files")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tUPLOADED")
	for _, r := range records {
		uploaded := "-"
		if !r.UploadedAt.IsZero() {
			uploaded = r.UploadedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.FileName, catalog.FormatSize(r.Size), r.ContentType, uploaded)
	}
	return tw.Flush()
}

func writeTasks(w io.Writer, tasks []upload.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No files selected")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSIZE\tSTATUS")
	for i, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, t.Name, catalog.FormatSize(t.Size), taskStatus(t))
	}
	return tw.Flush()
}

func taskStatus(t upload.Task) string {
	switch t.Status {
	case upload.StatusUploading:
		return fmt.Sprintf("uploading %d%%", t.Percent)
	case upload.StatusError:
		return "error: " + t.ErrorMessage
	}
	return string(t.Status)
}

// progressStep is the minimum percent change worth a new progress line.
const progressStep = 10

// progressPrinter renders upload task changes as lines of text.
type progressPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	last map[string]int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, last: make(map[string]int)}
}

func (p *progressPrinter) observe(t upload.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch t.Status {
	case upload.StatusUploading:
		last, seen := p.last[t.ID]
		if seen && t.Percent < last+progressStep && t.Percent < 100 {
			return
		}
		p.last[t.ID] = t.Percent
		fmt.Fprintf(p.w, "  %s: %d%%\n", t.Name, t.Percent)
	case upload.StatusDone:
		delete(p.last, t.ID)
		fmt.Fprintf(p.w, "  %s: done\n", t.Name)
	case upload.StatusError:
		delete(p.last, t.ID)
		fmt.Fprintf(p.w, "  %s: failed: %s\n", t.Name, t.ErrorMessage)
	}
}
