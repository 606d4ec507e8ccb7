package usecases

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
)

// mockLoader implements ports.DatasetLoader for testing
type mockLoader struct {
	mu      sync.Mutex
	dataset entities.Dataset
	calls   int
}

func (m *mockLoader) Load(dir string) entities.Dataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.dataset
}

func (m *mockLoader) set(ds entities.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataset = ds
}

func (m *mockLoader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// staticSource implements ports.DatasetSource for testing
type staticSource struct {
	dataset entities.Dataset
}

func (s staticSource) Current(ctx context.Context) entities.Dataset { return s.dataset }
func (s staticSource) Policy() string                               { return "static" }

// mockGenerator implements ports.Generator for testing
type mockGenerator struct {
	reply    string
	err      error
	gotText  string
	gotHint  *entities.Example
	received bool
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, userText string, hint *entities.Example) (string, error) {
	m.received = true
	m.gotText = userText
	m.gotHint = hint
	return m.reply, m.err
}

// mockFiles implements ports.DatasetFiles for testing
type mockFiles struct {
	files   []entities.DatasetFile
	saved   map[string][]byte
	valid   bool
	saveErr error
	listErr error
}

func newMockFiles() *mockFiles {
	return &mockFiles{saved: map[string][]byte{}, valid: true}
}

func (m *mockFiles) List(ctx context.Context) ([]entities.DatasetFile, error) {
	return m.files, m.listErr
}

func (m *mockFiles) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.saved[name] = buf.Bytes()
	return name, nil
}

func (m *mockFiles) Validate(ctx context.Context, name string) (bool, error) {
	return m.valid, nil
}

func (m *mockFiles) Path(name string) (string, error) {
	if _, ok := m.saved[name]; !ok {
		return "", ErrFileNotFound
	}
	return "/data/" + name, nil
}

func (m *mockFiles) Extension() string { return ".jsonl" }

var (
	_ ports.DatasetLoader = (*mockLoader)(nil)
	_ ports.DatasetSource = staticSource{}
	_ ports.Generator     = (*mockGenerator)(nil)
	_ ports.DatasetFiles  = (*mockFiles)(nil)
)
