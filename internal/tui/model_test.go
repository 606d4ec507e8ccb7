package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

type fakeChat struct {
	got  []string
	resp *entities.ChatResponse
	err  error
}

func (f *fakeChat) Reply(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	f.got = append(f.got, req.Message)
	return f.resp, f.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestModel_LoadingUntilSized(t *testing.T) {
	m := New(context.Background(), &fakeChat{}, "2 examples")
	assert.Equal(t, "Loading...", m.View())

	m = sized(t, m)
	assert.Contains(t, m.View(), "2 examples")
	assert.Contains(t, m.View(), "No messages yet.")
}

func TestModel_EnterSendsMessage(t *testing.T) {
	chat := &fakeChat{resp: &entities.ChatResponse{Response: "Take a deep breath.", Source: entities.SourceDataset}}
	m := sized(t, New(context.Background(), chat, ""))
	m = typeText(m, "I am stressed")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Equal(t, "", m.input.Value())
	require.Len(t, m.turns, 1)
	assert.Equal(t, "I am stressed", m.turns[0].user)

	msg := cmd()
	assert.Equal(t, []string{"I am stressed"}, chat.got)

	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.waiting)
	assert.Equal(t, "Take a deep breath.", m.turns[0].reply)
	assert.Equal(t, "local_dataset", m.turns[0].source)
	assert.Contains(t, m.renderTranscript(), "Take a deep breath.")
}

func TestModel_BlankEnterIgnored(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeChat{}, ""))
	m = typeText(m, "   ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).turns)
}

func TestModel_NoSecondSendWhileWaiting(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeChat{}, ""))
	m.waiting = true
	m = typeText(m, "hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_ReplyError(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeChat{}, ""))
	m.turns = []turn{{user: "hi"}}
	m.waiting = true

	next, _ := m.Update(replyMsg{err: errors.New("empty message")})
	m = next.(Model)
	assert.Equal(t, "empty message", m.turns[0].err)
	assert.Contains(t, m.status, "Error")
}

func TestModel_GeneratorErrorInStatus(t *testing.T) {
	m := sized(t, New(context.Background(), &fakeChat{}, ""))
	m.turns = []turn{{user: "hi"}}

	next, _ := m.Update(replyMsg{resp: &entities.ChatResponse{
		Response:       "fallback",
		Source:         entities.SourceDefault,
		GeneratorError: "timeout",
	}})
	assert.Contains(t, next.(Model).status, "generator: timeout")
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), &fakeChat{}, "")
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}
