// Package loader provides the dataset loading adapters.
// Dataset files are line-delimited JSON, one example exchange per line.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

const (
	// DefaultExtension is the dataset file suffix.
	DefaultExtension = ".jsonl"

	// maxLineSize is the longest line parsed (16 MB); longer lines are skipped.
	maxLineSize = 16 << 20
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// lineKind classifies one line of a dataset file.
type lineKind int

const (
	lineAccepted lineKind = iota
	lineBlank
	lineMalformed
	lineUnrecognized
)

// lineResult is the outcome of parsing one line.
type lineResult struct {
	kind     lineKind
	input    string
	response string
}

// parseLine turns one raw line into an example pair.
// (input, response) wins over (prompt, completion); values must be JSON strings.
func parseLine(line []byte) lineResult {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return lineResult{kind: lineBlank}
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(line, &record); err != nil || record == nil {
		return lineResult{kind: lineMalformed}
	}

	if in, resp, ok := stringPair(record, "input", "response"); ok {
		return lineResult{kind: lineAccepted, input: in, response: resp}
	}
	if in, resp, ok := stringPair(record, "prompt", "completion"); ok {
		return lineResult{kind: lineAccepted, input: in, response: resp}
	}
	return lineResult{kind: lineUnrecognized}
}

func stringPair(record map[string]json.RawMessage, a, b string) (string, string, bool) {
	first, ok := stringField(record, a)
	if !ok {
		return "", "", false
	}
	second, ok := stringField(record, b)
	if !ok {
		return "", "", false
	}
	return first, second, true
}

func stringField(record map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := record[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// JSONLLoader implements ports.DatasetLoader over a directory of JSONL files.
type JSONLLoader struct {
	extension string
	logger    *slog.Logger
}

// NewJSONLLoader creates a loader for files with the given extension
// (".jsonl" when empty).
func NewJSONLLoader(extension string, logger *slog.Logger) *JSONLLoader {
	if extension == "" {
		extension = DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLLoader{extension: extension, logger: logger}
}

// Extension returns the file suffix this loader reads.
func (l *JSONLLoader) Extension() string {
	return l.extension
}

// Load reads every dataset file directly under dir, in name order.
// Nothing here fails the load: bad lines and unreadable files are skipped
// and counted, and a missing directory gives an empty Dataset.
func (l *JSONLLoader) Load(dir string) entities.Dataset {
	var ds entities.Dataset

	paths, err := l.Files(dir)
	if err != nil {
		l.logger.Debug("dataset directory unreadable",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
		return ds
	}

	for _, path := range paths {
		ds.Report.Files++
		if err := l.loadFile(path, &ds); err != nil {
			ds.Report.FileErrors++
			l.logger.Debug("dataset file skipped",
				slog.String("file", path),
				slog.String("error", err.Error()),
			)
		}
	}

	l.logger.Debug("dataset loaded",
		slog.String("dir", dir),
		slog.Int("files", ds.Report.Files),
		slog.Int("examples", ds.Report.Accepted),
		slog.Int("malformed", ds.Report.Malformed),
		slog.Int("unrecognized", ds.Report.Unrecognized),
	)
	return ds
}

// Files lists the dataset files directly under dir, sorted by name.
// A missing directory is not an error.
func (l *JSONLLoader) Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !l.matches(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		// follow symlinks to regular files
		if info.Mode()&os.ModeSymlink != 0 {
			info, err = os.Stat(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *JSONLLoader) matches(name string) bool {
	return strings.EqualFold(filepath.Ext(name), l.extension)
}

// loadFile appends the examples from one file to ds.
// On a read error the examples already read are kept.
func (l *JSONLLoader) loadFile(path string, ds *entities.Dataset) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	return scanLines(f, func(n int, line []byte, tooLong bool) {
		ds.Report.Lines++
		if tooLong {
			ds.Report.Malformed++
			return
		}
		res := parseLine(line)
		switch res.kind {
		case lineBlank:
			ds.Report.Blank++
		case lineMalformed:
			ds.Report.Malformed++
		case lineUnrecognized:
			ds.Report.Unrecognized++
		case lineAccepted:
			ds.Report.Accepted++
			ds.Examples = append(ds.Examples, entities.Example{
				Input:      res.input,
				Response:   res.response,
				SourceFile: name,
				Line:       n,
			})
		}
	})
}
