package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// ChatPort is the TUI-facing subset of the chat use case.
type ChatPort interface {
	Reply(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error)
}

// turn is one exchange in the transcript.
type turn struct {
	user   string
	reply  string
	source string
	err    string
}

// replyMsg carries a finished reply back into Update.
type replyMsg struct {
	resp *entities.ChatResponse
	err  error
}

// Model is the Bubble Tea model for the interactive chat.
type Model struct {
	chat     ChatPort
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	summary  string
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. summary is shown under the title.
func New(ctx context.Context, chat ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Say something and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		chat:     chat,
		ctx:      ctx,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Ctrl+C to quit.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header+summary, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case replyMsg:
		m.waiting = false
		if len(m.turns) == 0 {
			return m, nil
		}
		last := &m.turns[len(m.turns)-1]
		if msg.err != nil {
			last.err = msg.err.Error()
			m.status = "Error: " + msg.err.Error()
		} else {
			last.reply = msg.resp.Response
			last.source = string(msg.resp.Source)
			m.status = "Reply from " + last.source
			if msg.resp.GeneratorError != "" {
				m.status += " (generator: " + msg.resp.GeneratorError + ")"
			}
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.turns = append(m.turns, turn{user: text})
			m.input.SetValue("")
			m.waiting = true
			m.status = "Thinking..."
			m.refresh()
			return m, m.ask(text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the chat use case off the UI goroutine.
func (m Model) ask(text string) tea.Cmd {
	ctx, chat := m.ctx, m.chat
	return func() tea.Msg {
		resp, err := chat.Reply(ctx, &entities.ChatRequest{Message: text})
		return replyMsg{resp: resp, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("exemplar chat")
	summary := dimStyle.Render(m.summary)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return dimStyle.Render("No messages yet.")
	}
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(userStyle.Render("you: "))
		sb.WriteString(t.user)
		sb.WriteString("\n")
		switch {
		case t.err != "":
			sb.WriteString(errorStyle.Render("error: " + t.err))
		case t.reply == "":
			sb.WriteString(dimStyle.Render("..."))
		default:
			sb.WriteString(botStyle.Render("bot: "))
			sb.WriteString(t.reply)
			sb.WriteString(" ")
			sb.WriteString(dimStyle.Render(fmt.Sprintf("[%s]", t.source)))
		}
	}
	return sb.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
