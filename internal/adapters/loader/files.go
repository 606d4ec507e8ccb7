package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

const (
	// DefaultMaxUploadBytes caps a single uploaded file (8 MB).
	DefaultMaxUploadBytes = 8 << 20

	// validateLines is how many leading lines Validate inspects.
	validateLines = 5
)

// ErrTooLarge is returned by Save when the content exceeds the upload cap.
var ErrTooLarge = errors.New("file exceeds upload size limit")

// FileStore implements ports.DatasetFiles on a local directory.
type FileStore struct {
	dir      string
	loader   *JSONLLoader
	maxBytes int64
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string, loader *JSONLLoader, maxBytes int64) *FileStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &FileStore{dir: dir, loader: loader, maxBytes: maxBytes}
}

// Dir returns the dataset directory.
func (s *FileStore) Dir() string { return s.dir }

// Extension returns the dataset file suffix.
func (s *FileStore) Extension() string { return s.loader.Extension() }

// EnsureDir creates the dataset directory if needed.
func (s *FileStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset dir: %w", err)
	}
	return nil
}

// List describes each dataset file: size, raw line count and accepted examples.
func (s *FileStore) List(ctx context.Context) ([]entities.DatasetFile, error) {
	paths, err := s.loader.Files(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	files := make([]entities.DatasetFile, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		df, err := describe(path)
		if err != nil {
			// the file vanished or became unreadable; leave it out
			continue
		}
		files = append(files, df)
	}
	return files, nil
}

func describe(path string) (entities.DatasetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return entities.DatasetFile{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return entities.DatasetFile{}, err
	}

	df := entities.DatasetFile{Name: filepath.Base(path), Size: info.Size()}
	err = scanLines(f, func(_ int, line []byte, tooLong bool) {
		df.Lines++
		if !tooLong && parseLine(line).kind == lineAccepted {
			df.Examples++
		}
	})
	return df, err
}

// Save writes r to name inside the directory. Content goes to a temporary
// file first and is renamed into place, so loaders never see half a file.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name = filepath.Base(name)
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if n > s.maxBytes {
		tmp.Close()
		return "", ErrTooLarge
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("renaming %s: %w", name, err)
	}
	return name, nil
}

// Validate reports whether one of the first few lines of name holds a
// usable pair. A line that is not JSON ends the check as invalid.
func (s *FileStore) Validate(ctx context.Context, name string) (bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return ValidateHead(f, validateLines), nil
}

// ValidateHead inspects at most maxLines lines of r, skipping blanks.
// An oversized line counts as malformed.
func ValidateHead(r io.Reader, maxLines int) bool {
	lr := newLineReader(r)
	for n := 1; n <= maxLines; n++ {
		line, tooLong, err := lr.next()
		if err != nil || tooLong {
			return false
		}
		switch parseLine(line).kind {
		case lineAccepted:
			return true
		case lineMalformed:
			return false
		}
	}
	return false
}

// Path resolves name to a regular file directly inside the directory.
func (s *FileStore) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || !s.loader.matches(name) {
		return "", fs.ErrNotExist
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fs.ErrNotExist
	}
	return path, nil
}
