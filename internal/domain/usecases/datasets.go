package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
)

var (
	// ErrInvalidFileName is returned when a name is empty or sanitizes to nothing.
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrUnsupportedExtension is returned for uploads that are not dataset files.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrFileNotFound is returned when a requested dataset file does not exist.
	ErrFileNotFound = errors.New("dataset file not found")

	// ErrNoSnapshot is returned by Reload under the per-request policy.
	ErrNoSnapshot = errors.New("dataset is loaded per request")
)

// Inventory summarizes the dataset directory.
type Inventory struct {
	Files         []entities.DatasetFile
	TotalLines    int
	TotalExamples int
}

// DatasetUseCase manages the files behind the dataset.
type DatasetUseCase struct {
	files  ports.DatasetFiles
	source ports.DatasetSource
	logger *slog.Logger
}

// NewDatasetUseCase creates a DatasetUseCase with injected dependencies.
func NewDatasetUseCase(files ports.DatasetFiles, source ports.DatasetSource, logger *slog.Logger) *DatasetUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetUseCase{files: files, source: source, logger: logger}
}

// Extension returns the accepted dataset file suffix.
func (uc *DatasetUseCase) Extension() string {
	return uc.files.Extension()
}

// List describes every dataset file with line and example counts.
func (uc *DatasetUseCase) List(ctx context.Context) (*Inventory, error) {
	files, err := uc.files.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing dataset files: %w", err)
	}

	inv := &Inventory{Files: files}
	for _, f := range files {
		inv.TotalLines += f.Lines
		inv.TotalExamples += f.Examples
	}
	return inv, nil
}

// Upload stores r as a dataset file. A file whose head holds no usable
// pair is still kept; the result reports it as not valid.
func (uc *DatasetUseCase) Upload(ctx context.Context, filename string, r io.Reader) (*entities.UploadResult, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrInvalidFileName
	}
	if !strings.EqualFold(filepath.Ext(filename), uc.files.Extension()) {
		return nil, ErrUnsupportedExtension
	}

	name := SecureFileName(filename)
	if name == "" || !strings.EqualFold(filepath.Ext(name), uc.files.Extension()) {
		return nil, ErrInvalidFileName
	}

	stored, err := uc.files.Save(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", name, err)
	}

	valid, err := uc.files.Validate(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", stored, err)
	}

	uc.logger.Info("dataset uploaded",
		slog.String("file", stored),
		slog.Bool("valid", valid),
	)

	if ref, ok := uc.source.(ports.DatasetRefresher); ok {
		ref.Refresh()
	}

	return &entities.UploadResult{File: stored, Valid: valid}, nil
}

// Open resolves a dataset file name to a path for download.
func (uc *DatasetUseCase) Open(name string) (string, error) {
	if SecureFileName(name) != name || name == "" {
		return "", ErrFileNotFound
	}
	if !strings.EqualFold(filepath.Ext(name), uc.files.Extension()) {
		return "", ErrFileNotFound
	}
	path, err := uc.files.Path(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrFileNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("resolving %s: %w", name, err)
	}
	return path, nil
}

// Reload refreshes a snapshot dataset now.
func (uc *DatasetUseCase) Reload(ctx context.Context) (entities.LoadReport, error) {
	ref, ok := uc.source.(ports.DatasetRefresher)
	if !ok {
		return entities.LoadReport{}, ErrNoSnapshot
	}
	return ref.Refresh(), nil
}

// SecureFileName reduces name to a safe base name: ASCII letters, digits,
// '_', '-' and '.', with whitespace and path separators turned into '_'.
// Leading and trailing dots and underscores are removed.
func SecureFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.Join(strings.Fields(name), "_")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			sb.WriteRune(r)
		}
	}
	return strings.Trim(sb.String(), "._")
}
