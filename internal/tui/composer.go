// Package tui implements the interactive composer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/hay-kot/quill/internal/core/config"
	"github.com/hay-kot/quill/internal/core/history"
	"github.com/hay-kot/quill/internal/styles"
)

// Layout rows reserved below the transcript: divider, bordered input, status.
const chromeHeight = 1 + 2 + 1

// historyLoadedMsg is sent once the navigator has its snapshot.
type historyLoadedMsg struct{}

// recordedMsg is sent when a submitted message has been written to history.
type recordedMsg struct {
	err error
}

// Model is the Bubble Tea model for the composer: a transcript of submitted
// messages above a multi-line input with shell-style history recall.
type Model struct {
	ctx      context.Context
	nav      *history.Navigator
	log      zerolog.Logger
	input    textarea.Model
	view     viewport.Model
	renderer *glamour.TermRenderer
	messages []string
	sent     []string // raw submitted text, in order
	width    int
	height   int
	err      error
}

// New creates a composer that records submissions through nav.
func New(ctx context.Context, nav *history.Navigator, cfg config.ComposerConfig, log zerolog.Logger) Model {
	ta := textarea.New()
	ta.Placeholder = cfg.Placeholder
	ta.CharLimit = cfg.CharLimit
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	return Model{
		ctx:      ctx,
		nav:      nav,
		log:      log,
		input:    ta,
		view:     viewport.New(80, 20),
		messages: []string{styles.BannerStyle.Render(styles.Banner), ""},
	}
}

// Sent returns the messages submitted during the session.
func (m Model) Sent() []string {
	return m.sent
}

// Init starts the cursor blink and loads history in the background.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadHistory())
}

func (m Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		m.nav.Load(m.ctx)
		return historyLoadedMsg{}
	}
}

func (m Model) record(content string) tea.Cmd {
	return func() tea.Msg {
		return recordedMsg{err: m.nav.Record(m.ctx, content)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case historyLoadedMsg:
		m.log.Debug().Int("entries", m.nav.Len()).Msg("history ready")
		return m, nil

	case recordedMsg:
		m.err = msg.err
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("record history")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		if !msg.Alt {
			return m.submit()
		}

	case tea.KeyEsc:
		m.input.Reset()
		m.nav.ResetPointer()
		return m, nil

	case tea.KeyUp:
		// Recall only from the first line so multi-line drafts stay editable.
		if m.nav.IsNavigating() || m.input.Line() == 0 {
			if entry, ok := m.nav.Prev(); ok {
				m.recall(entry)
				return m, nil
			}
		}

	case tea.KeyDown:
		if m.nav.IsNavigating() {
			if entry, ok := m.nav.Next(); ok {
				m.recall(entry)
				return m, nil
			}
		}
	}

	before := m.input.Value()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != before {
		m.nav.ResetPointer()
	}
	return m, cmd
}

// recall replaces the input with entry and puts the caret at its end.
func (m *Model) recall(entry string) {
	m.input.SetValue(entry)
	m.input.CursorEnd()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	m.input.Reset()
	m.nav.ResetPointer()
	m.sent = append(m.sent, content)
	m.messages = append(m.messages, m.renderMessage(content))
	m.refreshTranscript()

	return m, m.record(content)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	m.input.SetWidth(max(width-4, 10))
	m.view.Width = width
	m.view.Height = max(height-chromeHeight, 1)

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		m.log.Debug().Err(err).Msg("create markdown renderer")
	} else {
		m.renderer = r
	}

	m.refreshTranscript()
}

func (m Model) renderMessage(content string) string {
	prompt := styles.PromptStyle.Render("›")
	if m.renderer == nil {
		return prompt + " " + content + "\n"
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return prompt + " " + content + "\n"
	}
	return prompt + strings.TrimRight(out, "\n") + "\n"
}

func (m *Model) refreshTranscript() {
	m.view.SetContent(strings.Join(m.messages, "\n"))
	m.view.GotoBottom()
}

// View renders the composer.
func (m Model) View() string {
	inputStyle := styles.InputStyle
	if m.nav.IsNavigating() {
		inputStyle = styles.RecallInputStyle
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.view.View(),
		styles.DividerStyle.Render(strings.Repeat("─", max(m.width, 1))),
		inputStyle.Render(m.input.View()),
		m.status(),
	)
}

func (m Model) status() string {
	if m.err != nil {
		return styles.ErrorStyle.Render(fmt.Sprintf("history: %v", m.err))
	}

	if !m.nav.Ready() {
		return styles.StatusStyle.Render("loading history…")
	}

	return styles.StatusStyle.Render(fmt.Sprintf(
		"%d in history · ↑/↓ recall · enter send · alt+enter newline · esc clear · ctrl+c quit",
		m.nav.Len(),
	))
}
