// Package upload turns a selection of local files into tracked upload
// tasks and drives them through the storage gateway in batches.
package upload

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/google/uuid"
)

type Status string

const (
	StatusSelected  Status = "selected"
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// Source yields the bytes of a task. Each call to Open starts from the
// beginning.
type Source interface {
	Open() (io.ReadCloser, error)
}

// FileSource reads a file from the local filesystem.
type FileSource string

func (p FileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// Task is one file tracked by the Orchestrator.
type Task struct {
	ID           string
	Name         string
	Size         int64
	Status       Status
	Percent      int
	ErrorMessage string
	// Source is nil when the file data cannot be resolved.
	Source Source
}

// taskNamespace scopes the name-based task IDs.
var taskNamespace = uuid.MustParse("6f1c0a53-1f0e-4d36-9a4e-2a3d8f6c1b7e")

// TaskID derives the stable identity of a file from its name, size and
// content digest.
func TaskID(name string, size int64, digest []byte) string {
	key := name + "|" + strconv.FormatInt(size, 10) + "|" + hex.EncodeToString(digest)
	return uuid.NewSHA1(taskNamespace, []byte(key)).String()
}

// NewFileTask builds a selected task for the regular file at path.
// Selecting the same file again yields the same ID.
func NewFileTask(path string) (Task, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Task{}, err
	}
	if !fi.Mode().IsRegular() {
		return Task{}, fmt.Errorf("%s: %w", path, errNotRegular)
	}

	sum, err := cryptox.DigestFile(path)
	if err != nil {
		return Task{}, fmt.Errorf("digest %s: %w", path, err)
	}

	name := filepath.Base(path)
	return Task{
		ID:     TaskID(name, fi.Size(), sum),
		Name:   name,
		Size:   fi.Size(),
		Status: StatusSelected,
		Source: FileSource(path),
	}, nil
}

var errNotRegular = errors.New("not a regular file")
