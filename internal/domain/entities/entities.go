// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

// Example is one stored exchange: what someone said and a good reply to it.
// SourceFile and Line are diagnostics only and never affect matching.
type Example struct {
	Input      string `json:"input"`
	Response   string `json:"response"`
	SourceFile string `json:"source_file,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// LoadReport counts what happened while building a Dataset.
type LoadReport struct {
	Files        int `json:"files"`
	FileErrors   int `json:"file_errors"`
	Lines        int `json:"lines"`
	Blank        int `json:"blank"`
	Malformed    int `json:"malformed"`
	Unrecognized int `json:"unrecognized"`
	Accepted     int `json:"accepted"`
}

// Skipped returns the number of non-blank lines that did not become an Example.
func (r LoadReport) Skipped() int {
	return r.Malformed + r.Unrecognized
}

// Dataset is an ordered, read-only collection of Examples.
// Order is file discovery order, then line order within a file.
type Dataset struct {
	Examples []Example
	Report   LoadReport
}

// Len returns the number of examples.
func (d Dataset) Len() int {
	return len(d.Examples)
}

// Empty reports whether the dataset holds no examples.
func (d Dataset) Empty() bool {
	return len(d.Examples) == 0
}

// Match is the best-scoring Example for a query.
type Match struct {
	Example Example
	Score   int
	Index   int // Position in Dataset.Examples
}

// DatasetFile describes one file in the dataset directory.
type DatasetFile struct {
	Name     string `json:"file"`
	Size     int64  `json:"size"`
	Lines    int    `json:"lines"`
	Examples int    `json:"examples"`
}

// UploadResult reports where an uploaded file was stored and whether
// its head looked like a dataset.
type UploadResult struct {
	File  string
	Valid bool
}

// Source identifies where a chat reply came from.
type Source string

const (
	SourceDataset Source = "local_dataset"
	SourceDefault Source = "local_default"
)

// ChatRequest is a single user message.
type ChatRequest struct {
	Message string
}

// ChatResponse is the reply plus how it was produced.
type ChatResponse struct {
	Response       string
	Source         Source
	Match          *Example
	Score          int
	GeneratorError string
}

// Generated reports whether the reply came from a generator backend.
func (r *ChatResponse) Generated() bool {
	return r.Source != SourceDataset && r.Source != SourceDefault
}
