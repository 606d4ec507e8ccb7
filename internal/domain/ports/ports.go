// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"io"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// DatasetLoader builds a Dataset from a directory of example files.
// Load never fails: unreadable files and bad lines are skipped and counted
// in the returned report, and a missing directory yields an empty Dataset.
type DatasetLoader interface {
	Load(dir string) entities.Dataset
}

// DatasetSource hands out the Dataset to use for one request.
// Implementations decide whether that means a fresh read or a cached snapshot.
type DatasetSource interface {
	Current(ctx context.Context) entities.Dataset

	// Policy names the load policy ("per_request" or "snapshot").
	Policy() string
}

// DatasetRefresher is a DatasetSource that caches and can be told to reload.
type DatasetRefresher interface {
	DatasetSource
	Refresh() entities.LoadReport
}

// DatasetFiles manages the raw files behind a dataset directory.
type DatasetFiles interface {
	// List describes every dataset file in the directory.
	List(ctx context.Context) ([]entities.DatasetFile, error)

	// Save stores r under name and returns the final base name.
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	// Validate reports whether the head of a stored file holds a usable pair.
	Validate(ctx context.Context, name string) (bool, error)

	// Path resolves name to a file inside the directory.
	Path(name string) (string, error)

	// Extension is the dataset file suffix, e.g. ".jsonl".
	Extension() string
}

// Generator produces a reply for a user message, optionally steered by
// the best matching Example.
type Generator interface {
	// Name identifies the backend; it is reported as the reply source.
	Name() string

	Generate(ctx context.Context, userText string, hint *entities.Example) (string, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
