package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/exemplar/internal/config"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

const sampleDataset = `{"input": "I feel sad", "response": "It's okay to feel sad."}
{"prompt": "I am stressed", "completion": "Take a deep breath."}
not json
`

// testApp returns an App with a default config pointing at a temp dataset dir.
func testApp(t *testing.T) (*App, string) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Dataset.Dir = dir
	cfg.Dataset.LoadPolicy = usecases.PolicyPerRequest
	cfg.Generator.Backend = "none"

	return &App{Config: cfg, LogWriter: io.Discard}, dir
}

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestWire_PerRequestWithoutGenerator(t *testing.T) {
	app, _ := testApp(t)
	require.NoError(t, app.Wire())

	assert.Nil(t, app.Generator)
	assert.Equal(t, usecases.PolicyPerRequest, app.Chat.Policy())
	assert.Equal(t, "none", app.Chat.GeneratorName())
	assert.IsType(t, &usecases.FreshSource{}, app.Source)
}

func TestWire_Snapshot(t *testing.T) {
	app, dir := testApp(t)
	writeDataset(t, dir, "a.jsonl", sampleDataset)
	app.Config.Dataset.LoadPolicy = usecases.PolicySnapshot
	require.NoError(t, app.Wire())

	assert.IsType(t, &usecases.SnapshotSource{}, app.Source)
	assert.Equal(t, 2, app.Source.Current(t.Context()).Len())
}

func TestWire_GeneratorError(t *testing.T) {
	app, _ := testApp(t)
	app.Config.Generator.Backend = "anthropic"
	app.Config.Generator.AnthropicAPIKey = ""

	assert.Error(t, app.Wire())
}

func TestAskCmd_Text(t *testing.T) {
	app, dir := testApp(t)
	writeDataset(t, dir, "a.jsonl", sampleDataset)

	out, err := executeCmd(t, app, "ask", "I", "am", "very", "stressed", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "Take a deep breath.")
	assert.Contains(t, out, "source: local_dataset")
	assert.Contains(t, out, `matched "I am stressed"`)
}

func TestAskCmd_JSON(t *testing.T) {
	app, dir := testApp(t)
	writeDataset(t, dir, "a.jsonl", sampleDataset)

	out, err := executeCmd(t, app, "ask", "--json", "I feel sad")
	require.NoError(t, err)

	var got askOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "It's okay to feel sad.", got.Response)
	assert.Equal(t, "local_dataset", got.Source)
	require.NotNil(t, got.Match)
	assert.Equal(t, "I feel sad", got.Match.Input)
}

func TestAskCmd_DefaultReply(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "ask", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, usecases.DefaultReply)
	assert.Contains(t, out, "source: local_default")
}

func TestAskCmd_Blank(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "ask", "   ")
	assert.ErrorIs(t, err, usecases.ErrEmptyMessage)
}

func TestDatasetsCmd(t *testing.T) {
	app, dir := testApp(t)
	writeDataset(t, dir, "a.jsonl", sampleDataset)

	out, err := executeCmd(t, app, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, "a.jsonl")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "loaded 2 examples from 1 files")
	assert.Contains(t, out, "malformed 1")
}

func TestDatasetsCmd_Empty(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "datasets")
	require.NoError(t, err)
	assert.Contains(t, out, "No .jsonl files")
}

func TestDatasetsCmd_JSON(t *testing.T) {
	app, dir := testApp(t)
	writeDataset(t, dir, "a.jsonl", sampleDataset)

	out, err := executeCmd(t, app, "datasets", "--json")
	require.NoError(t, err)

	var got struct {
		TotalLines    int `json:"total_lines"`
		TotalExamples int `json:"total_examples"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 3, got.TotalLines)
	assert.Equal(t, 2, got.TotalExamples)
}

func TestCombineCmd_DefaultsToWorkingDir(t *testing.T) {
	app, dir := testApp(t)
	cwd := t.TempDir()
	t.Chdir(cwd)
	writeDataset(t, dir, "a.jsonl", `{"input": "a", "response": "1"}`+"\n")
	writeDataset(t, dir, "b.jsonl", `{"input": "b", "response": "2"}`)

	out, err := executeCmd(t, app, "combine")
	require.NoError(t, err)
	assert.Contains(t, out, "Combined 2 files (2 lines)")
	assert.NotContains(t, out, "Warning")

	data, err := os.ReadFile(filepath.Join(cwd, "dataset.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, `{"input": "a", "response": "1"}`+"\n"+`{"input": "b", "response": "2"}`+"\n", string(data))

	assert.NoFileExists(t, filepath.Join(dir, "dataset.jsonl"))
	assert.Equal(t, 2, app.Loader.Load(dir).Len())
}

func TestCombineCmd_WarnsWhenOutputIsInDatasetDir(t *testing.T) {
	app, dir := testApp(t)
	writeDataset(t, dir, "a.jsonl", `{"input": "a", "response": "1"}`+"\n")
	writeDataset(t, dir, "b.jsonl", `{"input": "b", "response": "2"}`)
	outPath := filepath.Join(dir, "dataset.jsonl")

	out, err := executeCmd(t, app, "combine", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Combined 2 files")
	assert.Contains(t, out, "loaded twice")

	// Running again must not fold the previous output into itself.
	out, err = executeCmd(t, app, "combine", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Combined 2 files")
}

func TestCombineCmd_ExplicitNormalize(t *testing.T) {
	app, dir := testApp(t)
	in := writeDataset(t, dir, "a.jsonl", sampleDataset)
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	out, err := executeCmd(t, app, "combine", "-o", outPath, "--normalize", in)
	require.NoError(t, err)
	assert.Contains(t, out, "1 skipped")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"input":"I feel sad","response":"It's okay to feel sad."}`+"\n"+
			`{"input":"I am stressed","response":"Take a deep breath."}`+"\n",
		string(data))
}

func TestCombineCmd_NoInputs(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "combine")
	assert.Error(t, err)
}

func TestChatCmd_RequiresTerminal(t *testing.T) {
	app, _ := testApp(t)
	app.IsInteractive = func() bool { return false }

	_, err := executeCmd(t, app, "chat")
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	app := &App{}

	out, err := executeCmd(t, app, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	assert.Nil(t, app.Chat, "config init must not wire the stack")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "datasets", cfg.Dataset.Dir)

	_, err = executeCmd(t, &App{}, "config", "init", path)
	assert.Error(t, err)

	_, err = executeCmd(t, &App{}, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestRootCmd_BadConfigPath(t *testing.T) {
	app := &App{LogWriter: io.Discard}

	_, err := executeCmd(t, app, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "datasets")
	assert.Error(t, err)
}

func TestExcludePath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jsonl")
	out := filepath.Join(dir, "out.jsonl")

	got, err := excludePath([]string{a, out, filepath.Join(dir, ".", "out.jsonl")}, out)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, got)
}
